package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "****4567", MaskValue("0771234567"))
	assert.Equal(t, "a****@example.com", MaskValue("amal@example.com"))
	assert.Equal(t, "****", MaskValue("123"))
	assert.Equal(t, "", MaskValue("  "))
}

func TestMaskMetadata(t *testing.T) {
	got := MaskMetadata(map[string]any{
		"invoice_number": "INV-1001",
		"company_phone":  "0112345678",
		"changes": map[string]any{
			"email": "owner@garage.lk",
			"total": "93.50",
		},
		"": "dropped",
	})

	assert.Equal(t, "INV-1001", got["invoice_number"])
	assert.Equal(t, "****5678", got["company_phone"])
	nested := got["changes"].(map[string]any)
	assert.Equal(t, "o****@garage.lk", nested["email"])
	assert.Equal(t, "93.50", nested["total"])
	assert.NotContains(t, got, "")

	assert.Nil(t, MaskMetadata(nil))
}
