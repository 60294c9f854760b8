package parse

import "strings"

// Supplier-name heuristics. Venezuelan invoices open with the SENIAT tax
// authority letterhead, which is never the supplier; the real name usually
// sits on the next line or carries a legal-entity suffix.

var legalSuffixes = []string{"C.A.", "S.A.", "S.R.L", "FIRMA PERSONAL"}

// Generic category lines that look like names but describe the trade.
var genericTerms = []string{"MATERIALES", "CONSTRUCCION", "REPUESTOS", "SERVICIOS"}

const (
	supplierSuffixWindow = 15
	supplierPlainWindow  = 5
)

// extractSupplier tries four tiers in order; the first hit wins.
func extractSupplier(lines []string) string {
	// Tier 1: the line right below the SENIAT letterhead.
	for i, line := range lines {
		upper := strings.ToUpper(line)
		if !strings.Contains(upper, "SENIAT") || i+1 >= len(lines) {
			continue
		}
		next := lines[i+1]
		nextUpper := strings.ToUpper(next)
		if len(next) > 5 && !strings.Contains(nextUpper, "RIF") && !strings.Contains(nextUpper, "FACTURA") {
			return next
		}
		break
	}

	// Tier 2: a legal-entity suffix within the letterhead region. Generic
	// category lines are skipped unless they end in a legal suffix
	// ("MATERIALES EL SOL, C.A." is a name, "MATERIALES DE CONSTRUCCION" is not).
	for i := 0; i < len(lines) && i < supplierSuffixWindow; i++ {
		upper := strings.ToUpper(lines[i])
		if !hasLegalSuffix(upper) {
			continue
		}
		if isGenericLine(upper) && !endsWithLegalSuffix(upper) {
			continue
		}
		return lines[i]
	}

	// Tier 3: first plausible plain line near the top.
	for i := 0; i < len(lines) && i < supplierPlainWindow; i++ {
		line := lines[i]
		if len(line) <= 5 {
			continue
		}
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "SENIAT") ||
			strings.Contains(upper, "REPÚBLICA") || strings.Contains(upper, "REPUBLICA") ||
			strings.Contains(upper, "FACTURA") ||
			isGenericLine(upper) {
			continue
		}
		return line
	}

	return DefaultSupplierName
}

func hasLegalSuffix(upper string) bool {
	for _, s := range legalSuffixes {
		if strings.Contains(upper, s) {
			return true
		}
	}
	return false
}

func endsWithLegalSuffix(upper string) bool {
	trimmed := strings.TrimRight(upper, " .")
	for _, s := range legalSuffixes {
		if strings.HasSuffix(trimmed, strings.TrimRight(s, ".")) {
			return true
		}
	}
	return false
}

func isGenericLine(upper string) bool {
	for _, t := range genericTerms {
		if strings.Contains(upper, t) {
			return true
		}
	}
	return false
}

// extractDescription picks a best-guess purchase description: a reasonably
// long line that is neither letterhead noise nor a date, preferring one that
// is not just the supplier name again.
func extractDescription(lines []string, supplier string) string {
	supplierUpper := strings.ToUpper(supplier)
	var candidates []string
	for _, line := range lines {
		if len(line) <= 10 {
			continue
		}
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "SENIAT") || strings.Contains(upper, "RIF") ||
			strings.Contains(upper, "FACTURA") || strings.Contains(upper, "CONTROL") {
			continue
		}
		if reDate.MatchString(upper) {
			continue
		}
		candidates = append(candidates, line)
	}
	for _, c := range candidates {
		if !strings.Contains(strings.ToUpper(c), supplierUpper) {
			return c
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return DefaultItemsDescription
}
