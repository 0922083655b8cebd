package domain

// TransferError is a transfer failure with a stable, machine-checkable reason
// code. The engine returns the sentinel instances below, so callers can match
// with errors.Is and still read the code for response payloads.
type TransferError struct {
	Code    string
	Message string
}

func (e *TransferError) Error() string { return e.Message }

var (
	ErrInvalidAmount              = &TransferError{Code: "INVALID_AMOUNT", Message: "Amount must be a positive value"}
	ErrInvalidTarget              = &TransferError{Code: "INVALID_TARGET", Message: "Cannot transfer to the same account"}
	ErrSourceAccountNotFound      = &TransferError{Code: "SOURCE_ACCOUNT_NOT_FOUND", Message: "Source account not found"}
	ErrDestinationAccountNotFound = &TransferError{Code: "DESTINATION_ACCOUNT_NOT_FOUND", Message: "Invalid account"}
	ErrInsufficientBalance        = &TransferError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient balance"}
	ErrIdempotencyConflict        = &TransferError{Code: "IDEMPOTENCY_CONFLICT", Message: "Idempotency key was already used with a different transfer"}
	ErrStoreUnavailable           = &TransferError{Code: "STORE_UNAVAILABLE", Message: "Ledger storage is temporarily unavailable"}
)
