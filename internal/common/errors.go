package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientSignal marks a document that was read but produced no usable
// identifying fields: no RIF, no real invoice number and a zero total.
var ErrInsufficientSignal = errors.New("no usable invoice data detected (missing RIF, invoice number and total)")

// ErrUnsupportedFormat is returned for media types the engine cannot branch on.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// AcquisitionError means no acquisition strategy could produce text from the
// document. It aggregates the per-strategy diagnostics so the user can act on
// them (retry with a clearer scan, check connectivity, etc.).
type AcquisitionError struct {
	Attempts []string // "<strategy>: <diagnostic>" per failed strategy
}

func (e *AcquisitionError) Error() string {
	if len(e.Attempts) == 0 {
		return "text acquisition failed"
	}
	return fmt.Sprintf("text acquisition failed: %s", strings.Join(e.Attempts, "; "))
}

// DuplicateError reports that a parsed candidate matches an invoice already in
// the store. It carries the conflicting record's identity so callers can point
// the user at it.
type DuplicateError struct {
	ExistingID    string
	RIF           string
	InvoiceNumber string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate invoice: number %q for supplier RIF %q already exists (id %s)",
		e.InvoiceNumber, e.RIF, e.ExistingID)
}

// Diagnostic renders an error as a non-empty human-readable string. Engines
// occasionally fail with an empty message; callers must never see that.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "recognition engine returned no diagnostic output"
	}
	return msg
}

// WrapError annotates err with a message, preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
