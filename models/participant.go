package models

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus classifies how much of a participant's fee has been collected.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// ComputeStatus maps (fee, paid) to the three-state payment status.
// Negative paid amounts fall through to pending; overpayment counts as paid.
func ComputeStatus(amountDue, amountPaid float64) PaymentStatus {
	if amountPaid <= 0 {
		return PaymentStatusPending
	}
	if amountPaid >= amountDue {
		return PaymentStatusPaid
	}
	return PaymentStatusPartial
}

// Participant is an entrant (player or team) owing a fixed fee within one tournament.
// Status is persisted redundantly; it must equal ComputeStatus(AmountDue, AmountPaid)
// at the instant it is written.
type Participant struct {
	ID           string        `json:"id" gorm:"primaryKey"`
	TournamentID string        `json:"tournament_id" gorm:"not null;index"`
	Name         string        `json:"name" gorm:"not null"`
	TeamName     *string       `json:"team_name,omitempty"`
	Contact      *string       `json:"contact,omitempty"`
	AmountDue    float64       `json:"amount_due" gorm:"not null"`
	AmountPaid   float64       `json:"amount_paid" gorm:"default:0"`
	Status       PaymentStatus `json:"status" gorm:"type:varchar(16);default:'pending'"`
	PaymentRef   *string       `json:"payment_ref,omitempty"`
	PhotoURL     *string       `json:"photo_url,omitempty"`
	ReceiptURL   *string       `json:"receipt_url,omitempty"`
	CreatedAt    time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// Remaining may go negative on overpayment; no clamp is applied.
func (p *Participant) Remaining() float64 {
	return p.AmountDue - p.AmountPaid
}

// DisplayName is "Name (Team)" when a team name is present.
func (p *Participant) DisplayName() string {
	if p.TeamName != nil && *p.TeamName != "" {
		return fmt.Sprintf("%s (%s)", p.Name, *p.TeamName)
	}
	return p.Name
}

// ReceiptNumber derives the short receipt identifier shown on receipts:
// "RCT-" plus the last 6 characters of the participant id, upper-cased.
func (p *Participant) ReceiptNumber() string {
	id := p.ID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "RCT-" + strings.ToUpper(id)
}

// Totals aggregates fee, collected and remaining amounts over a roster snapshot.
// Never persisted; recomputed from AmountDue/AmountPaid on every snapshot.
type Totals struct {
	TotalFee       float64 `json:"total_fee"`
	TotalPaid      float64 `json:"total_paid"`
	TotalRemaining float64 `json:"total_remaining"`
}

func SumTotals(participants []Participant) Totals {
	var t Totals
	for _, p := range participants {
		t.TotalFee += p.AmountDue
		t.TotalPaid += p.AmountPaid
	}
	t.TotalRemaining = t.TotalFee - t.TotalPaid
	return t
}
