// workers/receipt_archive_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"squadpay-system/models"
	"squadpay-system/services"
	"squadpay-system/utils"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ReceiptArchiver renders and uploads receipt images for participants who
// have paid something but have no archived receipt yet, so a receipt link
// is ready the moment an organizer wants to share it.
type ReceiptArchiver struct {
	DB *gorm.DB
}

func NewReceiptArchiver(db *gorm.DB) *ReceiptArchiver {
	return &ReceiptArchiver{DB: db}
}

// candidates are participants with a payment on record and no receipt_url.
func (a *ReceiptArchiver) candidates() ([]models.Participant, error) {
	var participants []models.Participant
	err := a.DB.Where("amount_paid > 0 AND receipt_url IS NULL").
		Order("updated_at ASC").
		Limit(25).
		Find(&participants).Error
	return participants, err
}

func (a *ReceiptArchiver) archive(p models.Participant) error {
	var tournament models.Tournament
	tournamentName := "Tournament"
	if err := a.DB.First(&tournament, "id = ?", p.TournamentID).Error; err == nil {
		tournamentName = tournament.Name
	}

	summary := services.BuildReceiptSummary(p, tournamentName)
	png, err := utils.RenderReceiptPNG(services.BuildReceiptCard(summary), 2)
	if err != nil {
		return err
	}

	key := "receipts/" + slug.Make(tournamentName) + "/" + p.ID + ".png"
	url, err := utils.UploadBytesToR2(png, key, "image/png")
	if err != nil {
		return err
	}

	return a.DB.Model(&models.Participant{}).
		Where("id = ?", p.ID).
		Update("receipt_url", url).Error
}

// PollReceipts runs the archive loop. A failed participant is retried on the
// next poll because its receipt_url stays empty; there is no retry state.
func PollReceipts(ctx context.Context, archiver *ReceiptArchiver, pollInterval time.Duration) {
	if !utils.R2Configured() {
		log.Println("⚠️  Receipt archiving disabled: R2 is not configured")
		return
	}
	log.Println("Starting receipt archive polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Receipt archive polling stopped.")
			return
		case <-ticker.C:
			participants, err := archiver.candidates()
			if err != nil {
				log.Printf("❌ Error querying receipt candidates: %v", err)
				continue
			}
			if len(participants) == 0 {
				continue
			}

			archived := 0
			for _, p := range participants {
				if err := archiver.archive(p); err != nil {
					log.Printf("❌ Failed to archive receipt for participant %s: %v", p.ID, err)
					continue
				}
				archived++
			}
			if archived > 0 {
				log.Printf("✅ Archived %d receipt image(s) to R2", archived)
			}
		}
	}
}
