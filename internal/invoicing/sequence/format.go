package sequence

import (
	"fmt"
	"regexp"
	"strconv"
)

// Prefix is the literal prefix carried by every invoice number. It is part of
// the wire format: invoice numbers are stored verbatim on invoices and shown
// to external consumers, so changing it is a breaking change.
const Prefix = "WC"

// MaxValue is the largest sequence value representable in the fixed 4-digit
// field.
const MaxValue = 9999

// numberPattern is the full contract: literal prefix, 4-digit partition
// (calendar year), 4-digit zero-padded sequence.
var numberPattern = regexp.MustCompile(`^` + Prefix + `-\d{4}-\d{4}$`)

// Number is a parsed invoice number.
type Number struct {
	Prefix    string `json:"prefix"`
	Partition string `json:"partition"`
	Value     int    `json:"value"`
}

// Format renders a partition key and sequence value as an invoice number,
// e.g. Format("2025", 7) -> "WC-2025-0007". It performs no validation; the
// allocator validates the result before handing it out.
func Format(partition string, value int) string {
	return fmt.Sprintf("%s-%s-%04d", Prefix, partition, value)
}

// ValidFormat reports whether s matches the invoice number contract.
func ValidFormat(s string) bool {
	return numberPattern.MatchString(s)
}

// Parse splits a formatted invoice number into its components. It returns
// ErrMalformedNumber when s does not match the contract.
func Parse(s string) (Number, error) {
	if !numberPattern.MatchString(s) {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	// Pattern guarantees fixed widths: WC-YYYY-NNNN.
	partition := s[len(Prefix)+1 : len(Prefix)+5]
	value, err := strconv.Atoi(s[len(Prefix)+6:])
	if err != nil {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	return Number{Prefix: Prefix, Partition: partition, Value: value}, nil
}
