package export

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/comunalve/factura-engine/internal/entity"
	"github.com/comunalve/factura-engine/internal/repository"
)

type memRepo struct {
	invoices []*entity.Invoice
}

func (m *memRepo) Save(ctx context.Context, inv *entity.Invoice) error {
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memRepo) ListInvoices(ctx context.Context) ([]*entity.Invoice, error) {
	return m.invoices, nil
}

func (m *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return repository.ErrNotFound
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestExportInvoicesXLSX(t *testing.T) {
	repo := &memRepo{invoices: []*entity.Invoice{
		{
			ID:               uuid.New(),
			InvoiceDate:      "2024-03-15",
			SupplierName:     "COMPUTER SUPPLIES, C. A.",
			RIF:              "J-12345678-9",
			InvoiceNumber:    "00123",
			ItemsDescription: "Teclado mecanico",
			TotalAmount:      26623.32,
			FileName:         "factura.pdf",
			CreatedAt:        time.Now(),
		},
	}}
	svc := NewService(repo, slog.New(slog.NewTextHandler(nopWriter{}, nil)))

	data, err := svc.ExportInvoicesXLSX(context.Background())
	if err != nil {
		t.Fatalf("ExportInvoicesXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Facturas")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[0][0] != "Fecha" || rows[0][1] != "Proveedor" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][2] != "J-12345678-9" {
		t.Errorf("rif cell = %q", rows[1][2])
	}
	if rows[1][3] != "00123" {
		t.Errorf("invoice number cell = %q", rows[1][3])
	}
}

func TestExportInvoicesXLSXEmptyStore(t *testing.T) {
	svc := NewService(&memRepo{}, slog.New(slog.NewTextHandler(nopWriter{}, nil)))

	data, err := svc.ExportInvoicesXLSX(context.Background())
	if err != nil {
		t.Fatalf("ExportInvoicesXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Facturas")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("corto", 140); got != "corto" {
		t.Errorf("truncate short = %q", got)
	}
	long := "descripcion de gasto extremadamente larga que no cabe en la celda"
	got := truncate(long, 20)
	if len([]rune(got)) > 20 {
		t.Errorf("truncate long = %q (len %d)", got, len(got))
	}
}
