package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		template string
		prefix   string
		seq      int64
		want     string
	}{
		{name: "default", template: DefaultInvoiceNumberTemplate, prefix: "INV", seq: 1001, want: "INV-1001"},
		{name: "trimmed prefix", template: DefaultInvoiceNumberTemplate, prefix: " GRG ", seq: 7, want: "GRG-7"},
		{name: "padded", template: "{PREFIX}{YYYY}-{SEQ5}", prefix: "INV", seq: 42, want: "INV2026-00042"},
		{name: "dated", template: "{PREFIX}-{YY}{MM}{DD}-{SEQ}", prefix: "A", seq: 3, want: "A-260307-3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FormatInvoiceNumber(tc.template, tc.prefix, issued, tc.seq)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatInvoiceNumberRejects(t *testing.T) {
	issued := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)

	_, err := FormatInvoiceNumber("", "INV", issued, 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, "INV", issued, 0)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, "  ", issued, 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("{PREFIX}-{SEQ}-{BOGUS}", "INV", issued, 1)
	assert.Error(t, err)
}
