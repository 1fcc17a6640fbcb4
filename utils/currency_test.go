package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatINR(t *testing.T) {
	assert.Equal(t, "₹0", FormatINR(0))
	assert.Equal(t, "₹1,000", FormatINR(1000))
	assert.Equal(t, "₹600.50", FormatINR(600.5))
	// Negative remainders (overpayment) keep the sign.
	assert.Equal(t, "₹-500", FormatINR(-500))
}
