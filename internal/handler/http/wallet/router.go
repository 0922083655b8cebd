package wallet_http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go.uber.org/zap"

	"wallet/internal/app/ledger"
	"wallet/internal/app/users"
	"wallet/internal/auth"
)

func RegisterRoutes(r chi.Router, userService users.Service, ledgerService ledger.Service, tokens *auth.TokenManager, l *zap.Logger) {
	handler := NewWalletHandler(userService, ledgerService, l.With(zap.String("component", "WalletHTTPHandler")))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Wallet service is healthy!"))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/signup", handler.SignupHandler)
			r.Post("/signin", handler.SigninHandler)

			r.Group(func(r chi.Router) {
				r.Use(RequireAuth(tokens))
				r.Put("/", handler.UpdateUserHandler)
				r.Get("/bulk", handler.SearchUsersHandler)
			})
		})

		r.Route("/account", func(r chi.Router) {
			r.Use(RequireAuth(tokens))
			r.Get("/balance", handler.BalanceHandler)
			r.Post("/transfer", handler.TransferHandler)
		})
	})
}
