package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/comunalve/factura-engine/internal/entity"
)

// ErrNotFound is returned when a lookup matches no invoice.
var ErrNotFound = errors.New("invoice not found")

type InvoiceRepository interface {
	Save(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	ListInvoices(ctx context.Context) ([]*entity.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type invoiceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewInvoiceRepository(db *sql.DB, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepository{db: db, logger: logger}
}

const invoiceColumns = `id, invoice_date, supplier_name, rif, invoice_number,
	items_description, total_amount, file_name, file_type, created_at`

func (r *invoiceRepository) Save(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID.String(), inv.InvoiceDate, inv.SupplierName, inv.RIF, inv.InvoiceNumber,
		inv.ItemsDescription, inv.TotalAmount, inv.FileName, inv.FileType, inv.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to save invoice", "invoice_number", inv.InvoiceNumber, "error", err)
		return err
	}
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id.String())
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (r *invoiceRepository) ListInvoices(ctx context.Context) ([]*entity.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC`)
	if err != nil {
		r.logger.Error("failed to list invoices", "error", err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(s scanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var id string
	if err := s.Scan(&id, &inv.InvoiceDate, &inv.SupplierName, &inv.RIF, &inv.InvoiceNumber,
		&inv.ItemsDescription, &inv.TotalAmount, &inv.FileName, &inv.FileType, &inv.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	inv.ID = parsed
	return &inv, nil
}
