package engine

import (
	"strings"

	"github.com/comunalve/factura-engine/internal/entity"
	"github.com/comunalve/factura-engine/internal/parse"
)

// NormalizeKey builds the duplicate-comparison key from a RIF and an invoice
// number. It is applied symmetrically to candidates and stored records so the
// comparison logic cannot drift between the two sides: uppercase, strip every
// non-alphanumeric character, and drop leading zeros from the number.
func NormalizeKey(rif, invoiceNumber string) string {
	return normalizeStandard(rif) + "|" + normalizeInvoiceNumber(invoiceNumber)
}

func normalizeStandard(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeInvoiceNumber(s string) string {
	return strings.TrimLeft(normalizeStandard(s), "0")
}

// FindDuplicate returns the first stored invoice whose normalized key matches
// the candidate, or nil. Linear scan: the per-project invoice set is thousands
// of records at most.
func FindDuplicate(candidate parse.Fields, existing []*entity.Invoice) *entity.Invoice {
	key := NormalizeKey(candidate.RIF, candidate.InvoiceNumber)
	for _, inv := range existing {
		if NormalizeKey(inv.RIF, inv.InvoiceNumber) == key {
			return inv
		}
	}
	return nil
}
