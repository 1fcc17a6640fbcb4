package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStatus(t *testing.T) {
	tests := []struct {
		name string
		due  float64
		paid float64
		want PaymentStatus
	}{
		{"negative paid is pending", 1000, -50, PaymentStatusPending},
		{"zero paid is pending", 1000, 0, PaymentStatusPending},
		{"partial payment", 1000, 400, PaymentStatusPartial},
		{"one rupee short is partial", 1000, 999, PaymentStatusPartial},
		{"exact payment", 1000, 1000, PaymentStatusPaid},
		{"overpayment is paid", 1000, 1500, PaymentStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStatus(tt.due, tt.paid))
		})
	}
}

func TestRemainingNoClamp(t *testing.T) {
	p := Participant{AmountDue: 1000, AmountPaid: 1500}
	// Overpayment goes negative on purpose: refunds stay visible.
	assert.Equal(t, -500.0, p.Remaining())

	p = Participant{AmountDue: 1000, AmountPaid: 400}
	assert.Equal(t, 600.0, p.Remaining())
}

func TestSumTotals(t *testing.T) {
	participants := []Participant{
		{AmountDue: 1000, AmountPaid: 1000},
		{AmountDue: 500, AmountPaid: 200},
	}

	totals := SumTotals(participants)
	assert.Equal(t, 1500.0, totals.TotalFee)
	assert.Equal(t, 1200.0, totals.TotalPaid)
	assert.Equal(t, 300.0, totals.TotalRemaining)
}

func TestSumTotalsEmptyRoster(t *testing.T) {
	totals := SumTotals(nil)
	assert.Equal(t, 0.0, totals.TotalFee)
	assert.Equal(t, 0.0, totals.TotalPaid)
	assert.Equal(t, 0.0, totals.TotalRemaining)
}

func TestReceiptNumber(t *testing.T) {
	p := Participant{ID: "c1f9a2b7-4d3e-4f10-9a2b-77fe01ab34cd"}
	assert.Equal(t, "RCT-AB34CD", p.ReceiptNumber())

	short := Participant{ID: "x9"}
	assert.Equal(t, "RCT-X9", short.ReceiptNumber())
}

func TestDisplayName(t *testing.T) {
	team := "Blue XI"
	p := Participant{Name: "Rahul", TeamName: &team}
	assert.Equal(t, "Rahul (Blue XI)", p.DisplayName())

	empty := ""
	p = Participant{Name: "Rahul", TeamName: &empty}
	assert.Equal(t, "Rahul", p.DisplayName())

	p = Participant{Name: "Rahul"}
	assert.Equal(t, "Rahul", p.DisplayName())
}
