// Package parse turns raw recognition text into structured invoice fields.
//
// The input is noisy, Spanish-language, Venezuelan invoice text coming out of
// an OCR engine or a PDF text layer. Every sub-heuristic degrades to a
// documented default instead of failing: a partial record is strictly more
// useful to the person uploading the photo than an error.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Defaults used when no heuristic matches. Values are user-facing and shown in
// the invoice table, hence Spanish.
const (
	DefaultSupplierName     = "Proveedor Desconocido"
	DefaultItemsDescription = "Gasto procesado automáticamente (OCR)"
)

// Fields is the structured candidate produced from one document.
type Fields struct {
	InvoiceDate      string  // ISO YYYY-MM-DD, or "" when no plausible date
	SupplierName     string  // DefaultSupplierName when unknown
	RIF              string  // canonical L-DDDDDDDD-D, or ""
	InvoiceNumber    string  // never empty; synthetic OCR-XXXXXX when unmatched
	NumberSynthetic  bool    // true when InvoiceNumber was generated, not read
	ItemsDescription string  // never empty
	TotalAmount      float64 // >= 0, max of all currency-shaped tokens
}

// Parser extracts invoice fields from raw text. Zero value is usable; Now is
// only consulted for the synthetic invoice-number fallback and the
// calendar-year false-positive guard.
type Parser struct {
	Now func() time.Time
}

func NewParser() *Parser {
	return &Parser{Now: time.Now}
}

var (
	// RIF: one letter of the taxpayer-class set, 5-9 digits, optional check
	// digit, tolerating "-", "." or whitespace between groups.
	reRIF = regexp.MustCompile(`\b([VJEPG])[-.\s]?(\d{5,9})[-.\s]?(\d)\b`)

	// DD<sep>MM<sep>YY[YY]. First group is always read as the day: the
	// source documents are DD/MM and no month-validity swap is attempted.
	reDate = regexp.MustCompile(`\b(\d{2})[-/.\s](\d{2})[-/.\s](\d{2,4})\b`)

	// Labelled invoice number: label, punctuation noise, then an
	// alphanumeric run containing at least 2 consecutive digits.
	reInvoiceNo = regexp.MustCompile(`(?:FACTURA|CONTROL|NOTA|FISCAL|NRO|NUMERO|NO\.)[\s.:°º]*([A-Z0-9\-/]*\d{2}[A-Z0-9\-/]*)`)

	// Bare "N° 12345" style marker with a digit/separator run of 4+.
	reInvoiceNoBare = regexp.MustCompile(`N[°º.]?\s*([\d\-/]{4,})`)

	// Standalone digit run used when a labelled match turns out to be a year.
	reDigitRun = regexp.MustCompile(`\b\d{5,}\b`)

	// Currency-shaped token: grouped thousands with a 2-digit decimal tail,
	// in either Latin-American (26.623,32) or US (1,234.56) convention, plus
	// ungrouped forms like 1000,00.
	reMoney = regexp.MustCompile(`\b\d+(?:[.,]\d{3})*[.,]\d{2}\b`)

	reSpaces = regexp.MustCompile(`\s+`)
)

// Parse extracts the six invoice fields from raw text. It never fails: fields
// without a confident match carry their documented default.
func (p *Parser) Parse(text string) Fields {
	now := time.Now
	if p != nil && p.Now != nil {
		now = p.Now
	}

	// Whitespace-collapsed uppercase copy for pattern matching; the original
	// line split is kept for the positional supplier/description heuristics.
	clean := strings.ToUpper(reSpaces.ReplaceAllString(text, " "))
	lines := splitLines(text)

	rif := extractRIF(clean)
	date := extractDate(clean)
	number, synthetic := p.extractInvoiceNumber(clean, now)
	total := extractTotal(clean)
	supplier := extractSupplier(lines)
	description := extractDescription(lines, supplier)

	return Fields{
		InvoiceDate:      date,
		SupplierName:     supplier,
		RIF:              rif,
		InvoiceNumber:    number,
		NumberSynthetic:  synthetic,
		ItemsDescription: description,
		TotalAmount:      total,
	}
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// extractRIF re-normalizes any accepted separator style to L-DDDDDDDD-D.
func extractRIF(clean string) string {
	m := reRIF.FindStringSubmatch(clean)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
}

// extractDate accepts DD<sep>MM<sep>YY[YY] and formats ISO. Two-digit years
// are expanded with a "20" prefix. Years outside (2000, 2030) are treated as
// non-matches rather than corrected.
func extractDate(clean string) string {
	m := reDate.FindStringSubmatch(clean)
	if m == nil {
		return ""
	}
	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}
	y, err := strconv.Atoi(year)
	if err != nil || y <= 2000 || y >= 2030 {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", year, m[2], m[1])
}

// extractInvoiceNumber runs the two-tier labelled search, applies the
// calendar-year false-positive guard, and guarantees a non-empty result via
// the synthetic OCR- fallback. The second return reports whether the number
// was synthesized.
func (p *Parser) extractInvoiceNumber(clean string, now func() time.Time) (string, bool) {
	var candidate string
	if m := reInvoiceNo.FindStringSubmatch(clean); m != nil {
		candidate = m[1]
	} else if m := reInvoiceNoBare.FindStringSubmatch(clean); m != nil {
		candidate = m[1]
	}
	candidate = strings.TrimFunc(candidate, func(r rune) bool {
		return !isAlnum(r)
	})

	// A bare 4-digit candidate equal to the current or prior year is almost
	// always the fiscal-period header, not the invoice number.
	if isCalendarYear(candidate, now()) {
		candidate = reDigitRun.FindString(clean)
	}

	if len(candidate) < 2 {
		millis := strconv.FormatInt(now().UnixMilli(), 10)
		return "OCR-" + millis[len(millis)-6:], true
	}
	return candidate, false
}

func isCalendarYear(s string, now time.Time) bool {
	if len(s) != 4 {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n == now.Year() || n == now.Year()-1
}

// extractTotal scans for every currency-shaped token, resolves the ambiguous
// group/decimal separators, and reports the maximum value found. The grand
// total is heuristically the largest currency figure on the page.
func extractTotal(clean string) float64 {
	var total float64
	for _, tok := range reMoney.FindAllString(clean, -1) {
		v, ok := parseAmount(tok)
		if ok && v > total {
			total = v
		}
	}
	return total
}

// parseAmount resolves locale separators in a single token:
// both "," and "." present -> the later one is the decimal separator;
// only "," -> decimal comma (Latin-American convention);
// only "." -> already canonical.
func parseAmount(tok string) (float64, bool) {
	comma := strings.LastIndex(tok, ",")
	dot := strings.LastIndex(tok, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			tok = strings.ReplaceAll(tok, ".", "")
			tok = strings.Replace(tok, ",", ".", 1)
		} else {
			tok = strings.ReplaceAll(tok, ",", "")
		}
	case comma >= 0:
		tok = strings.ReplaceAll(tok[:comma], ",", "") + "." + tok[comma+1:]
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func isAlnum(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z'
}
