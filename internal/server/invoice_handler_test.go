package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/comunalve/factura-engine/internal/common"
	"github.com/comunalve/factura-engine/internal/entity"
	"github.com/comunalve/factura-engine/internal/extract"
	"github.com/comunalve/factura-engine/internal/parse"
	"github.com/comunalve/factura-engine/internal/repository"
)

type stubEngine struct {
	fields parse.Fields
	err    error
}

func (s *stubEngine) Process(ctx context.Context, doc extract.RawDocument) (parse.Fields, error) {
	return s.fields, s.err
}

type stubRepo struct {
	invoices []*entity.Invoice
	saveErr  error
}

func (s *stubRepo) Save(ctx context.Context, inv *entity.Invoice) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.invoices = append(s.invoices, inv)
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	for _, inv := range s.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubRepo) ListInvoices(ctx context.Context) ([]*entity.Invoice, error) {
	return s.invoices, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for i, inv := range s.invoices {
		if inv.ID == id {
			s.invoices = append(s.invoices[:i], s.invoices[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type stubExporter struct {
	data []byte
	err  error
}

func (s *stubExporter) ExportInvoicesXLSX(ctx context.Context) ([]byte, error) {
	return s.data, s.err
}

type silentWriter struct{}

func (silentWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestServer(engine Processor, repo repository.InvoiceRepository, exporter Exporter) http.Handler {
	logger := slog.New(slog.NewTextHandler(silentWriter{}, nil))
	h := NewInvoiceHandler(engine, repo, exporter, 1<<20, logger)
	return NewRouter(h, []string{"*"})
}

func multipartUpload(t *testing.T, filename, mediaType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", mediaType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

func TestExtractInvoiceSuccess(t *testing.T) {
	repo := &stubRepo{}
	engine := &stubEngine{fields: parse.Fields{
		InvoiceDate:      "2024-03-15",
		SupplierName:     "COMPUTER SUPPLIES, C. A.",
		RIF:              "J-12345678-9",
		InvoiceNumber:    "00123",
		ItemsDescription: "Teclado mecanico",
		TotalAmount:      26623.32,
	}}
	srv := newTestServer(engine, repo, &stubExporter{})

	body, contentType := multipartUpload(t, "factura.pdf", "application/pdf", []byte("%PDF fake"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got entity.Invoice
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.RIF != "J-12345678-9" || got.FileName != "factura.pdf" {
		t.Errorf("response = %+v", got)
	}
	if len(repo.invoices) != 1 {
		t.Fatalf("store has %d invoices, want 1", len(repo.invoices))
	}
	if repo.invoices[0].FileType != "application/pdf" {
		t.Errorf("FileType = %q", repo.invoices[0].FileType)
	}
}

func TestExtractInvoiceDuplicateConflict(t *testing.T) {
	existing := uuid.New()
	engine := &stubEngine{err: &common.DuplicateError{
		ExistingID:    existing.String(),
		RIF:           "J-12345678-9",
		InvoiceNumber: "00123",
	}}
	srv := newTestServer(engine, &stubRepo{}, &stubExporter{})

	body, contentType := multipartUpload(t, "factura.pdf", "application/pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["duplicateInvoiceId"] != existing.String() {
		t.Errorf("duplicateInvoiceId = %q", payload["duplicateInvoiceId"])
	}
	if payload["duplicateInvoiceNum"] != "00123" {
		t.Errorf("duplicateInvoiceNum = %q", payload["duplicateInvoiceNum"])
	}
}

func TestExtractInvoiceInsufficientSignal(t *testing.T) {
	engine := &stubEngine{err: common.WrapError(common.ErrInsufficientSignal, "gate")}
	srv := newTestServer(engine, &stubRepo{}, &stubExporter{})

	body, contentType := multipartUpload(t, "borrosa.jpg", "image/jpeg", []byte("jpg"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestExtractInvoiceAcquisitionFailure(t *testing.T) {
	engine := &stubEngine{err: &common.AcquisitionError{Attempts: []string{"remote: timeout", "local: exit status 1"}}}
	srv := newTestServer(engine, &stubRepo{}, &stubExporter{})

	body, contentType := multipartUpload(t, "factura.pdf", "application/pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "remote: timeout") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestExtractInvoiceUnsupportedUpload(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubRepo{}, &stubExporter{})

	body, contentType := multipartUpload(t, "notas.txt", "text/plain", []byte("hola"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
}

func TestExtractInvoiceMissingFileField(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubRepo{}, &stubExporter{})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("other", "value")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/extract", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListGetDeleteInvoices(t *testing.T) {
	inv := &entity.Invoice{ID: uuid.New(), SupplierName: "X CORP, C.A.", InvoiceNumber: "42"}
	repo := &stubRepo{invoices: []*entity.Invoice{inv}}
	srv := newTestServer(&stubEngine{}, repo, &stubExporter{})

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got []*entity.Invoice
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 1 || got[0].InvoiceNumber != "42" {
			t.Errorf("got = %+v", got)
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+inv.ID.String(), nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("get malformed id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/not-a-uuid", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/invoices/"+inv.ID.String(), nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if len(repo.invoices) != 0 {
			t.Error("invoice not removed")
		}
	})
}

func TestImportBackupEndpoint(t *testing.T) {
	repo := &stubRepo{}
	srv := newTestServer(&stubEngine{}, repo, &stubExporter{})

	payload := `{"invoices": [{
		"supplierName": "X CORP, C.A.",
		"invoiceNumber": "42",
		"itemsDescription": "materiales varios",
		"totalAmount": 10
	}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/import", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["imported"] != 1 || got["skipped"] != 0 {
		t.Errorf("got = %v", got)
	}
}

func TestImportBackupEndpointRejectsBadPayload(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubRepo{}, &stubExporter{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/import", strings.NewReader(`{"nope": 1}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubRepo{}, &stubExporter{data: []byte("xlsx-bytes")})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "facturas.xlsx") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "xlsx-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubRepo{}, &stubExporter{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
