// services/scheduler.go
package services

import (
	"log"
	"time"

	"squadpay-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartStatusSweep repairs persisted statuses that drifted from what
// ComputeStatus derives from the stored amounts. Statuses are recomputed on
// every write, so drift only appears through out-of-band edits; the sweep
// keeps the stored column trustworthy for display.
func (s *ParticipantService) StartStatusSweep() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			var participants []models.Participant
			if err := s.DB.Find(&participants).Error; err != nil {
				log.Printf("[StatusSweep] DB error: %v", err)
				return
			}

			repaired := 0
			for _, p := range participants {
				expected := models.ComputeStatus(p.AmountDue, p.AmountPaid)
				if p.Status == expected {
					continue
				}
				if err := s.DB.Model(&models.Participant{}).
					Where("id = ?", p.ID).
					Update("status", expected).Error; err != nil {
					log.Printf("[StatusSweep] Failed to repair participant %s: %v", p.ID, err)
					continue
				}
				repaired++
			}
			if repaired > 0 {
				log.Printf("✅ [StatusSweep] Repaired %d drifted status value(s)", repaired)
			}
		}),
	)
}
