package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter wires the invoice API. The handlers are thin plumbing; all the
// extraction logic lives in the engine.
func NewRouter(h *InvoiceHandler, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"factura-engine"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/invoices/extract", h.ExtractInvoice).Methods(http.MethodPost)
	api.HandleFunc("/invoices/import", h.ImportBackup).Methods(http.MethodPost)
	api.HandleFunc("/invoices/export", h.ExportXLSX).Methods(http.MethodGet)
	api.HandleFunc("/invoices", h.ListInvoices).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}", h.GetInvoice).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}", h.DeleteInvoice).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(router)
}
