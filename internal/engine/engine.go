// Package engine sequences text acquisition strategies, parses the result and
// gates it (minimal-signal validation, duplicate check) before it reaches the
// caller's store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/comunalve/factura-engine/internal/common"
	"github.com/comunalve/factura-engine/internal/entity"
	"github.com/comunalve/factura-engine/internal/extract"
	"github.com/comunalve/factura-engine/internal/parse"
)

// InvoiceSource provides the existing records the duplicate guard compares
// against. The repository satisfies it; tests use in-memory stubs.
type InvoiceSource interface {
	ListInvoices(ctx context.Context) ([]*entity.Invoice, error)
}

type Engine struct {
	logger     *slog.Logger
	strategies []extract.Strategy
	parser     *parse.Parser
	source     InvoiceSource // nil disables the duplicate check
}

// New builds an engine over an ordered strategy list. Strategies are tried in
// sequence; the caller only sees an error when every one of them fails.
func New(logger *slog.Logger, source InvoiceSource, strategies ...extract.Strategy) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:     logger,
		strategies: strategies,
		parser:     parse.NewParser(),
		source:     source,
	}
}

// Process runs acquisition, parsing and gating for one document. Acquisition
// is the only blocking part; parsing is pure and cheap. The engine holds no
// mutable state, so concurrent calls with separate documents are safe.
func (e *Engine) Process(ctx context.Context, doc extract.RawDocument) (parse.Fields, error) {
	text, err := e.acquireText(ctx, doc)
	if err != nil {
		return parse.Fields{}, err
	}

	fields := e.parser.Parse(text)
	e.logger.Info("document parsed",
		"file", doc.Filename,
		"rif", fields.RIF,
		"invoice_number", fields.InvoiceNumber,
		"number_synthetic", fields.NumberSynthetic,
		"date", fields.InvoiceDate,
		"total", fields.TotalAmount,
	)

	// A missing RIF, a synthesized number and a zero total together mean the
	// document could not be read at all, not that a field happened to be
	// absent.
	if fields.RIF == "" && fields.NumberSynthetic && fields.TotalAmount == 0 {
		return parse.Fields{}, fmt.Errorf("%w: retry with a clearer photo or scan", common.ErrInsufficientSignal)
	}

	if e.source != nil {
		existing, err := e.source.ListInvoices(ctx)
		if err != nil {
			return parse.Fields{}, common.WrapError(err, "load existing invoices")
		}
		if dup := FindDuplicate(fields, existing); dup != nil {
			return parse.Fields{}, &common.DuplicateError{
				ExistingID:    dup.ID.String(),
				RIF:           dup.RIF,
				InvoiceNumber: dup.InvoiceNumber,
			}
		}
	}

	return fields, nil
}

// acquireText walks the strategy list. Every failure (including empty output)
// is logged and the next strategy tried; the aggregated diagnostics surface
// only when all strategies fail.
func (e *Engine) acquireText(ctx context.Context, doc extract.RawDocument) (string, error) {
	var attempts []string
	for _, s := range e.strategies {
		text, err := s.AcquireText(ctx, doc)
		if err != nil {
			e.logger.Warn("acquisition strategy failed",
				"strategy", s.Name(), "file", doc.Filename, "error", common.Diagnostic(err))
			attempts = append(attempts, s.Name()+": "+common.Diagnostic(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			e.logger.Warn("acquisition strategy returned empty text",
				"strategy", s.Name(), "file", doc.Filename)
			attempts = append(attempts, s.Name()+": returned empty text")
			continue
		}
		e.logger.Debug("acquisition ok", "strategy", s.Name(), "file", doc.Filename, "text_len", len(text))
		return text, nil
	}
	return "", &common.AcquisitionError{Attempts: attempts}
}
