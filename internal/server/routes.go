package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"bankify-ledger/internal/domain"
	"bankify-ledger/internal/handler"
	"bankify-ledger/internal/service"
)

const banner = "Bankify - digital banking ledger\nREST API for account and money movement operations\n"

// NewRouter wires services and handlers over store.
func NewRouter(store domain.Store, logger *slog.Logger) *mux.Router {
	accounts := handler.NewAccountHandler(service.NewAccountService(store, logger))
	movements := handler.NewTransactionHandler(service.NewTransactionService(store, logger))

	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(logger))

	api := router.PathPrefix("/api/accounts").Subrouter()
	api.HandleFunc("", accounts.CreateAccount).Methods(http.MethodPost)
	api.HandleFunc("", accounts.ListAccounts).Methods(http.MethodGet)
	// Fixed paths first so they never reach the {id} routes
	api.HandleFunc("/deposit", movements.Deposit).Methods(http.MethodPost)
	api.HandleFunc("/withdraw", movements.Withdraw).Methods(http.MethodPost)
	api.HandleFunc("/transfer", movements.Transfer).Methods(http.MethodPost)
	api.HandleFunc("/{id}", accounts.GetAccount).Methods(http.MethodGet)
	api.HandleFunc("/{id}", accounts.CloseAccount).Methods(http.MethodDelete)

	router.HandleFunc("/health", healthHandler(store)).Methods(http.MethodGet)
	router.HandleFunc("/", bannerHandler).Methods(http.MethodGet)

	return router
}

func healthHandler(store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func bannerHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, banner)
}
