// Package export produces XLSX workbooks from the invoice store for the
// community accounting reports.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/comunalve/factura-engine/internal/repository"
)

type Service struct {
	repo   repository.InvoiceRepository
	logger *slog.Logger
}

func NewService(repo repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportInvoicesXLSX returns an XLSX workbook (as bytes) with every stored
// invoice, newest first.
func (s *Service) ExportInvoicesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Facturas"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Fecha",
		"Proveedor",
		"RIF",
		"Nro. Factura",
		"Descripción",
		"Monto (Bs.)",
		"Archivo",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, inv := range invoices {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, inv.InvoiceDate)
		write(2, inv.SupplierName)
		write(3, inv.RIF)
		write(4, inv.InvoiceNumber)
		write(5, truncate(inv.ItemsDescription, 140))
		write(6, inv.TotalAmount)
		write(7, inv.FileName)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // fecha
	_ = f.SetColWidth(sheet, "B", "B", 32) // proveedor
	_ = f.SetColWidth(sheet, "C", "D", 16) // rif / nro
	_ = f.SetColWidth(sheet, "E", "E", 48) // descripción
	_ = f.SetColWidth(sheet, "F", "F", 14) // monto
	_ = f.SetColWidth(sheet, "G", "G", 40) // archivo

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(invoices),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
