package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

// DefaultInvoiceNumberTemplate yields numbers such as INV-1001.
const DefaultInvoiceNumberTemplate = "{PREFIX}-{SEQ}"

// FormatInvoiceNumber renders an invoice number from a template, the
// configured prefix, the issue time and the counter value.
//
// Supported tokens: {PREFIX}, {YYYY}, {YY}, {MM}, {DD}, {SEQ} and {SEQn}
// where n is a zero-padding width.
func FormatInvoiceNumber(template, prefix string, issuedAt time.Time, seq int64) (string, error) {
	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}
	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}
	prefix = strings.TrimSpace(prefix)
	if strings.Contains(template, "{PREFIX}") && prefix == "" {
		return "", fmt.Errorf("invoice prefix is empty")
	}

	out := strings.ReplaceAll(template, "{PREFIX}", prefix)

	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", issuedAt.Format("02"))

	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m
		}
		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}
	if len(out) > 50 {
		return "", fmt.Errorf("invoice number too long: %s", out)
	}

	return out, nil
}
