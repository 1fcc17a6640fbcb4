package models

import (
	"time"
)

// Tournament is a named collection event owning zero or more participants.
// Tournaments are never mutated after creation and never deleted.
type Tournament struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	// Relationships
	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:TournamentID"`

	// Calculated fields (not stored in DB)
	ParticipantsCount int64 `json:"participants_count,omitempty" gorm:"-"`
}
