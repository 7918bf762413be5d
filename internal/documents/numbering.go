package documents

import (
	"fmt"
	"regexp"
	"strconv"
)

// InvoiceSequencePattern captures the numeric suffix of an invoice number.
// Both stores use it as is: memstore through regexp, pgstore through
// substring(... FROM pattern) cast to BIGINT. Eighteen digits always fit.
const InvoiceSequencePattern = `-([0-9]{1,18})$`

var invoiceSequence = regexp.MustCompile(InvoiceSequencePattern)

// FormatInvoiceNumber renders PREFIX-NNN with at least three digits.
func FormatInvoiceNumber(kind Kind, seq int) string {
	return fmt.Sprintf("%s-%03d", kind.InvoicePrefix(), seq)
}

// ParseInvoiceSequence extracts the numeric suffix of an invoice number.
// Numbers that do not match InvoiceSequencePattern are ignored by numbering.
func ParseInvoiceSequence(number string) (int, bool) {
	m := invoiceSequence.FindStringSubmatch(number)
	if m == nil {
		return 0, false
	}
	seq, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return int(seq), true
}
