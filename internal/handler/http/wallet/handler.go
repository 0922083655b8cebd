package wallet_http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wallet/internal/app/ledger"
	"wallet/internal/app/users"
	"wallet/internal/domain"
)

type WalletHandler struct {
	users  users.Service
	ledger ledger.Service
	logger *zap.Logger
}

func NewWalletHandler(userService users.Service, ledgerService ledger.Service, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{users: userService, ledger: ledgerService, logger: logger}
}

type SignupRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Password  *string `json:"password"`
}

type TransferRequest struct {
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *WalletHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, token, err := h.users.Signup(r.Context(), users.SignupInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, users.ErrInvalidInput) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			writeMessage(w, http.StatusConflict, "Username already exists")
			return
		}
		h.logger.Error("signup failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User created successfully",
		"token":   token,
	})
}

func (h *WalletHandler) SigninHandler(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.users.Signin(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.logger.Error("signin failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *WalletHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusForbidden, "Unauthorized")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.users.UpdateProfile(r.Context(), userID, users.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, users.ErrInvalidInput) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("profile update failed", zap.String("user_id", userID), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

func (h *WalletHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")

	found, err := h.users.SearchUsers(r.Context(), filter)
	if err != nil {
		h.logger.Error("user search failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := make([]UserResponse, 0, len(found))
	for _, u := range found {
		resp = append(resp, UserResponse{
			ID:        u.ID,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": resp})
}

func (h *WalletHandler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusForbidden, "Unauthorized")
		return
	}

	account, err := h.ledger.GetAccountForUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			writeMessage(w, http.StatusNotFound, "Account not found")
			return
		}
		h.logger.Error("balance lookup failed", zap.String("user_id", userID), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"balance": decimal.New(account.BalanceCents, -2).StringFixed(2),
	})
}

func (h *WalletHandler) TransferHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusForbidden, "Unauthorized")
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	amountCents, err := amountToCents(req.Amount)
	if err != nil {
		writeTransferFailure(w, http.StatusBadRequest, domain.ErrInvalidAmount)
		return
	}

	_, err = h.ledger.Transfer(r.Context(), ledger.TransferInput{
		FromOwnerID:    userID,
		ToOwnerID:      req.To,
		AmountCents:    amountCents,
		IdempotencyKey: r.Header.Get("X-Idempotency-Key"),
	})
	if err != nil {
		h.writeTransferError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transfer successful"})
}

func (h *WalletHandler) writeTransferError(w http.ResponseWriter, userID string, err error) {
	var transferErr *domain.TransferError
	if !errors.As(err, &transferErr) {
		h.logger.Error("transfer failed", zap.String("user_id", userID), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch transferErr {
	case domain.ErrIdempotencyConflict:
		writeTransferFailure(w, http.StatusConflict, transferErr)
	case domain.ErrStoreUnavailable:
		writeTransferFailure(w, http.StatusServiceUnavailable, transferErr)
	default:
		writeTransferFailure(w, http.StatusBadRequest, transferErr)
	}
}

// amountToCents converts the decimal request amount to integer minor units,
// rejecting anything with sub-cent precision or outside the int64 range.
// IntPart is undefined beyond int64, so the range check must come first.
func amountToCents(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, errors.New("amount has sub-cent precision")
	}
	if !cents.BigInt().IsInt64() {
		return 0, errors.New("amount out of range")
	}
	return cents.IntPart(), nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeTransferFailure(w http.ResponseWriter, status int, transferErr *domain.TransferError) {
	writeJSON(w, status, map[string]string{
		"message": transferErr.Message,
		"code":    transferErr.Code,
	})
}
