// services/receipt_service.go
package services

import (
	"bufio"
	"errors"
	"log"
	"math"
	"strconv"
	"time"

	"squadpay-system/metrics"
	"squadpay-system/models"
	"squadpay-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type ReceiptService struct {
	DB            *gorm.DB
	WatchInterval time.Duration
}

func NewReceiptService(db *gorm.DB) *ReceiptService {
	return &ReceiptService{DB: db, WatchInterval: 2 * time.Second}
}

const receiptDateLayout = "02 Jan 2006"

// ReceiptSummary is the read-only rendered view of one participant's
// payment state.
type ReceiptSummary struct {
	ReceiptNumber  string               `json:"receipt_number"`
	IssuedOn       string               `json:"issued_on"`
	TournamentID   string               `json:"tournament_id"`
	TournamentName string               `json:"tournament_name"`
	ParticipantID  string               `json:"participant_id"`
	Name           string               `json:"name"`
	TeamName       string               `json:"team_name,omitempty"`
	Contact        string               `json:"contact,omitempty"`
	AmountDue      float64              `json:"amount_due"`
	AmountPaid     float64              `json:"amount_paid"`
	Remaining      float64              `json:"remaining"`
	Status         models.PaymentStatus `json:"status"`
	PaymentRef     string               `json:"payment_ref,omitempty"`
	ReceiptURL     string               `json:"receipt_url,omitempty"`
}

// BuildReceiptSummary derives the receipt view from a participant and its
// tournament name. The issue date falls back to "now" when the creation
// timestamp is absent.
func BuildReceiptSummary(p models.Participant, tournamentName string) ReceiptSummary {
	issuedAt := p.CreatedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	summary := ReceiptSummary{
		ReceiptNumber:  p.ReceiptNumber(),
		IssuedOn:       issuedAt.Format(receiptDateLayout),
		TournamentID:   p.TournamentID,
		TournamentName: tournamentName,
		ParticipantID:  p.ID,
		Name:           p.Name,
		AmountDue:      p.AmountDue,
		AmountPaid:     p.AmountPaid,
		Remaining:      p.Remaining(),
		Status:         p.Status,
	}
	if p.TeamName != nil {
		summary.TeamName = *p.TeamName
	}
	if p.Contact != nil {
		summary.Contact = *p.Contact
	}
	if p.PaymentRef != nil {
		summary.PaymentRef = *p.PaymentRef
	}
	if p.ReceiptURL != nil {
		summary.ReceiptURL = *p.ReceiptURL
	}
	return summary
}

// BuildReceiptCard formats a summary for the rasterizer.
func BuildReceiptCard(summary ReceiptSummary) utils.ReceiptCard {
	return utils.ReceiptCard{
		TournamentName:  summary.TournamentName,
		ReceiptNumber:   summary.ReceiptNumber,
		IssuedOn:        summary.IssuedOn,
		ParticipantName: summary.Name,
		TeamName:        summary.TeamName,
		Contact:         summary.Contact,
		Fee:             utils.FormatINR(summary.AmountDue),
		Paid:            utils.FormatINR(summary.AmountPaid),
		Remaining:       utils.FormatINR(summary.Remaining),
		Status:          string(summary.Status),
		PaymentRef:      summary.PaymentRef,
	}
}

var errReceiptNotFound = errors.New("receipt not found")

func (s *ReceiptService) loadSummary(tournamentID, participantID string) (ReceiptSummary, error) {
	var participant models.Participant
	err := s.DB.First(&participant, "id = ? AND tournament_id = ?", participantID, tournamentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReceiptSummary{}, errReceiptNotFound
		}
		return ReceiptSummary{}, err
	}

	var tournament models.Tournament
	tournamentName := "Tournament"
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err == nil {
		tournamentName = tournament.Name
	}

	return BuildReceiptSummary(participant, tournamentName), nil
}

// GetReceipt returns the receipt summary. A deleted or unknown participant
// is a terminal not-found; there is no retry.
func (s *ReceiptService) GetReceipt(c *fiber.Ctx) error {
	summary, err := s.loadSummary(c.Params("tournament_id"), c.Params("participant_id"))
	if err != nil {
		if errors.Is(err, errReceiptNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "receipt not found"})
		}
		log.Printf("ERROR loading receipt: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to load receipt"})
	}
	return c.JSON(summary)
}

// GetReceiptImage rasterizes the receipt card to PNG. The default 2x scale
// matches the share-quality export; ?scale= accepts 1–4. The response is a
// download so the user can share the file manually when native sharing is
// unavailable.
func (s *ReceiptService) GetReceiptImage(c *fiber.Ctx) error {
	summary, err := s.loadSummary(c.Params("tournament_id"), c.Params("participant_id"))
	if err != nil {
		if errors.Is(err, errReceiptNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "receipt not found"})
		}
		log.Printf("ERROR loading receipt: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to load receipt"})
	}

	scale := 2.0
	if v := c.Query("scale"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		// ParseFloat accepts "NaN" and "Inf", which slip past range checks
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 1 || parsed > 4 {
			return c.Status(400).JSON(fiber.Map{"error": "scale must be a number between 1 and 4"})
		}
		scale = parsed
	}

	png, err := utils.RenderReceiptPNG(BuildReceiptCard(summary), scale)
	if err != nil {
		log.Printf("ERROR rendering receipt image: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to render receipt image"})
	}

	metrics.ReceiptsRendered.Inc()
	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", `attachment; filename="squadpay-receipt.png"`)
	return c.Send(png)
}

// ShareReceipt renders the receipt PNG, uploads it to R2 and stores the
// object URL on the participant, returning a shareable link. When R2 is not
// configured the feature is disabled with a notice: the client falls back
// to downloading the image and sharing manually.
func (s *ReceiptService) ShareReceipt(c *fiber.Ctx) error {
	if !utils.R2Configured() {
		return c.Status(503).JSON(fiber.Map{
			"error": "receipt sharing is not configured; download the image and share it manually",
		})
	}

	tournamentID := c.Params("tournament_id")
	participantID := c.Params("participant_id")
	summary, err := s.loadSummary(tournamentID, participantID)
	if err != nil {
		if errors.Is(err, errReceiptNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "receipt not found"})
		}
		log.Printf("ERROR loading receipt: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to load receipt"})
	}

	png, err := utils.RenderReceiptPNG(BuildReceiptCard(summary), 2)
	if err != nil {
		log.Printf("ERROR rendering receipt image: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to render receipt image"})
	}
	metrics.ReceiptsRendered.Inc()

	key := "receipts/" + slug.Make(summary.TournamentName) + "/" + participantID + ".png"
	url, err := utils.UploadBytesToR2(png, key, "image/png")
	if err != nil {
		log.Printf("ERROR uploading receipt image: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload receipt image"})
	}

	if err := s.DB.Model(&models.Participant{}).
		Where("id = ?", participantID).
		Update("receipt_url", url).Error; err != nil {
		log.Printf("ERROR storing receipt URL for %s: %v", participantID, err)
	}

	return c.JSON(fiber.Map{"receipt_url": url})
}

// StreamReceipt is the single-document live read behind the receipt view.
// An empty snapshot means the participant is gone: one terminal not-found
// event, then the stream ends.
func (s *ReceiptService) StreamReceipt(c *fiber.Ctx) error {
	tournamentID := c.Params("tournament_id")
	participantID := c.Params("participant_id")

	var tournament models.Tournament
	tournamentName := "Tournament"
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err == nil {
		tournamentName = tournament.Name
	}

	setSSEHeaders(c)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		metrics.OpenStreams.Inc()
		defer metrics.OpenStreams.Dec()

		watcher := watchParticipant(s.DB, tournamentID, participantID, s.WatchInterval)
		defer watcher.Close()

		if err := writeSSEKeepalive(w); err != nil {
			return
		}
		keepalive := time.NewTicker(sseKeepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case snap, ok := <-watcher.Snapshots():
				if !ok {
					return
				}
				if snap.Err != nil {
					log.Printf("SSE receipt query error for %s: %v", participantID, snap.Err)
					_ = writeSSEEvent(w, "error", fiber.Map{"error": "failed to load receipt"})
					return
				}
				if len(snap.Items) == 0 {
					_ = writeSSEEvent(w, "not_found", fiber.Map{"error": "receipt not found"})
					return
				}
				summary := BuildReceiptSummary(snap.Items[0], tournamentName)
				if err := writeSSEEvent(w, "receipt", summary); err != nil {
					return
				}
			case <-keepalive.C:
				if err := writeSSEKeepalive(w); err != nil {
					return
				}
			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}
