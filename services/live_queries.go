// services/live_queries.go
package services

import (
	"fmt"
	"time"

	"squadpay-system/models"

	"gorm.io/gorm"
)

// Watcher constructors for the three live queries the dashboard and receipt
// views subscribe to. All collections are ordered by creation time ascending.

func watchTournaments(db *gorm.DB, interval time.Duration) *Watcher[models.Tournament] {
	return NewWatcher(interval,
		func() ([]models.Tournament, error) {
			var tournaments []models.Tournament
			err := db.Order("created_at ASC").Find(&tournaments).Error
			return tournaments, err
		},
		func(t models.Tournament) string {
			return fmt.Sprintf("%s|%s|%d", t.ID, t.Name, t.CreatedAt.UnixNano())
		},
	)
}

func watchParticipants(db *gorm.DB, tournamentID string, interval time.Duration) *Watcher[models.Participant] {
	return NewWatcher(interval,
		func() ([]models.Participant, error) {
			var participants []models.Participant
			err := db.Where("tournament_id = ?", tournamentID).
				Order("created_at ASC").
				Find(&participants).Error
			return participants, err
		},
		participantFingerprint,
	)
}

// watchParticipant is the single-document live read backing the receipt view.
// An empty snapshot means the participant does not exist (deleted or bad id).
func watchParticipant(db *gorm.DB, tournamentID, participantID string, interval time.Duration) *Watcher[models.Participant] {
	return NewWatcher(interval,
		func() ([]models.Participant, error) {
			var participants []models.Participant
			err := db.Where("tournament_id = ? AND id = ?", tournamentID, participantID).
				Limit(1).
				Find(&participants).Error
			return participants, err
		},
		participantFingerprint,
	)
}

func participantFingerprint(p models.Participant) string {
	return fmt.Sprintf("%s|%d", p.ID, p.UpdatedAt.UnixNano())
}
