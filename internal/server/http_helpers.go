package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/comunalve/factura-engine/internal/common"
)

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeEngineError maps the engine's failure taxonomy to HTTP statuses. A
// duplicate is a gated outcome, not a server fault: 409 with the conflicting
// record's identity so the UI can highlight it.
func writeEngineError(w http.ResponseWriter, err error) {
	var dup *common.DuplicateError
	if errors.As(err, &dup) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":               dup.Error(),
			"duplicateInvoiceId":  dup.ExistingID,
			"duplicateRif":        dup.RIF,
			"duplicateInvoiceNum": dup.InvoiceNumber,
		})
		return
	}
	if errors.Is(err, common.ErrInsufficientSignal) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	var acq *common.AcquisitionError
	if errors.As(err, &acq) {
		writeError(w, http.StatusBadGateway, acq.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, common.Diagnostic(err))
}
