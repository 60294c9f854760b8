package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/comunalve/factura-engine/constants"
	"github.com/comunalve/factura-engine/internal/entity"
	"github.com/comunalve/factura-engine/internal/extract"
	"github.com/comunalve/factura-engine/internal/parse"
	"github.com/comunalve/factura-engine/internal/repository"
)

// Processor is what the handler needs from the extraction engine.
type Processor interface {
	Process(ctx context.Context, doc extract.RawDocument) (parse.Fields, error)
}

// Exporter produces the XLSX report.
type Exporter interface {
	ExportInvoicesXLSX(ctx context.Context) ([]byte, error)
}

type InvoiceHandler struct {
	engine         Processor
	repo           repository.InvoiceRepository
	exporter       Exporter
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewInvoiceHandler(engine Processor, repo repository.InvoiceRepository, exporter Exporter, maxUploadBytes int64, logger *slog.Logger) *InvoiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 15 << 20
	}
	return &InvoiceHandler{
		engine:         engine,
		repo:           repo,
		exporter:       exporter,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ExtractInvoice accepts a multipart upload, runs the extraction engine, and
// persists the enriched candidate. Media types outside image/* and
// application/pdf are rejected here; the engine only branches on them.
func (h *InvoiceHandler) ExtractInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing \"file\" form field")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if constants.MapMediaType(mediaType) == "" &&
		constants.MapExtToFormat(filepath.Ext(header.Filename)) == "" {
		writeError(w, http.StatusUnsupportedMediaType, "only PDF and image uploads are supported")
		return
	}

	doc := extract.RawDocument{
		Content:   content,
		MediaType: mediaType,
		Filename:  header.Filename,
	}

	fields, err := h.engine.Process(r.Context(), doc)
	if err != nil {
		h.logger.Warn("extraction rejected", "file", header.Filename, "error", err)
		writeEngineError(w, err)
		return
	}

	inv := &entity.Invoice{
		ID:               uuid.New(),
		InvoiceDate:      fields.InvoiceDate,
		SupplierName:     fields.SupplierName,
		RIF:              fields.RIF,
		InvoiceNumber:    fields.InvoiceNumber,
		ItemsDescription: fields.ItemsDescription,
		TotalAmount:      fields.TotalAmount,
		FileName:         header.Filename,
		FileType:         mediaType,
		CreatedAt:        time.Now().UTC(),
	}
	if err := h.repo.Save(r.Context(), inv); err != nil {
		writeError(w, http.StatusInternalServerError, "save invoice: "+err.Error())
		return
	}

	h.logger.Info("invoice stored",
		"id", inv.ID, "invoice_number", inv.InvoiceNumber, "supplier", inv.SupplierName)
	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.repo.ListInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if invoices == nil {
		invoices = []*entity.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}
	inv, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if err == repository.ErrNotFound {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportBackup restores a JSON backup into the store.
func (h *InvoiceHandler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read backup: "+err.Error())
		return
	}
	imported, skipped, err := repository.ImportBackup(r.Context(), h.repo, data, h.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported, "skipped": skipped})
}

func (h *InvoiceHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.ExportInvoicesXLSX(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="facturas.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
