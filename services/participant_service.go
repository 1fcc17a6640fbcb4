// services/participant_service.go
package services

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"math"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"squadpay-system/metrics"
	"squadpay-system/models"
	"squadpay-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ParticipantService struct {
	DB            *gorm.DB
	WatchInterval time.Duration
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{DB: db, WatchInterval: 2 * time.Second}
}

// AddParticipant registers a squad/player under a tournament.
// Form fields: name (required), team_name, contact, fee (required, positive),
// payment_ref, plus an optional photo file uploaded to R2 when configured.
// The initial status is always computed with paid=0.
func (s *ParticipantService) AddParticipant(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournament"})
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	feeStr := strings.TrimSpace(c.FormValue("fee"))
	fee, err := strconv.ParseFloat(feeStr, 64)
	// ParseFloat accepts "NaN" and "Inf"; a NaN fee would poison every roster total
	if err != nil || math.IsNaN(fee) || math.IsInf(fee, 0) || fee <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "fee must be a positive number"})
	}

	// Optional photo → R2
	var photoURL *string
	if photo, err := c.FormFile("photo"); err == nil && photo.Size > 0 {
		if !utils.R2Configured() {
			return c.Status(503).JSON(fiber.Map{"error": "photo uploads are not configured on this deployment"})
		}
		ext := filepath.Ext(photo.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "participants/photos/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(photo, key)
		if err != nil {
			log.Printf("ERROR uploading participant photo: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload photo"})
		}
		photoURL = &url
	}

	participant := &models.Participant{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Name:         name,
		TeamName:     optionalField(c.FormValue("team_name")),
		Contact:      optionalField(c.FormValue("contact")),
		AmountDue:    fee,
		AmountPaid:   0,
		Status:       models.ComputeStatus(fee, 0),
		PaymentRef:   optionalField(c.FormValue("payment_ref")),
		PhotoURL:     photoURL,
	}
	if err := s.DB.Create(participant).Error; err != nil {
		log.Printf("ERROR creating participant: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to add participant"})
	}

	metrics.ParticipantsAdded.Inc()
	return c.Status(201).JSON(participant)
}

// GetParticipants lists the roster of a tournament ordered by creation time.
func (s *ParticipantService) GetParticipants(c *fiber.Ctx) error {
	var participants []models.Participant
	err := s.DB.Where("tournament_id = ?", c.Params("id")).
		Order("created_at ASC").
		Find(&participants).Error
	if err != nil {
		log.Printf("ERROR fetching participants: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch participants"})
	}
	return c.JSON(participants)
}

// UpdatePaidAmount records a payment: it recomputes the status from the
// stored fee and writes amount_paid + status in a single update of the one
// participant row. An optional payment_ref rides along.
func (s *ParticipantService) UpdatePaidAmount(c *fiber.Ctx) error {
	var req struct {
		AmountPaid *float64 `json:"amount_paid"`
		PaymentRef *string  `json:"payment_ref,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.AmountPaid == nil || *req.AmountPaid < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "paid amount must be 0 or a positive number"})
	}

	var participant models.Participant
	err := s.DB.First(&participant, "id = ? AND tournament_id = ?",
		c.Params("participant_id"), c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "participant not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch participant"})
	}

	newStatus := models.ComputeStatus(participant.AmountDue, *req.AmountPaid)
	fields := map[string]any{
		"amount_paid": *req.AmountPaid,
		"status":      newStatus,
	}
	if req.PaymentRef != nil && strings.TrimSpace(*req.PaymentRef) != "" {
		ref := strings.TrimSpace(*req.PaymentRef)
		fields["payment_ref"] = ref
		participant.PaymentRef = &ref
	}
	if err := s.DB.Model(&participant).Updates(fields).Error; err != nil {
		log.Printf("ERROR updating paid amount for %s: %v", participant.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update paid amount"})
	}
	participant.AmountPaid = *req.AmountPaid
	participant.Status = newStatus

	metrics.PaymentsRecorded.Inc()
	return c.JSON(participant)
}

// ReminderPayload is the WhatsApp deep link plus the message it carries.
type ReminderPayload struct {
	ParticipantID string `json:"participant_id"`
	Phone         string `json:"phone"`
	Message       string `json:"message"`
	Link          string `json:"link"`
}

var ErrInvalidPhone = errors.New("invalid phone number")

// ComposeReminder builds the fee reminder for one participant: the message
// names the participant (and team), the fee, the collected amount and the
// remaining balance, addressed to the sanitized contact number.
func ComposeReminder(p models.Participant) (ReminderPayload, error) {
	contact := ""
	if p.Contact != nil {
		contact = *p.Contact
	}
	phone, ok := utils.SanitizePhone(contact)
	if !ok {
		return ReminderPayload{}, ErrInvalidPhone
	}

	message := fmt.Sprintf(
		"Hello %s,\n\nYour cricket tournament fee is pending.\nFee: %s\nPaid: %s\nRemaining: %s\n\nPlease clear the payment at the earliest.\n\n- SquadPay",
		p.DisplayName(),
		utils.FormatINR(p.AmountDue),
		utils.FormatINR(p.AmountPaid),
		utils.FormatINR(p.Remaining()),
	)

	return ReminderPayload{
		ParticipantID: p.ID,
		Phone:         phone,
		Message:       message,
		Link:          "https://wa.me/91" + phone + "?text=" + url.QueryEscape(message),
	}, nil
}

// GetReminderLink composes the outbound WhatsApp reminder for a participant.
func (s *ParticipantService) GetReminderLink(c *fiber.Ctx) error {
	var participant models.Participant
	err := s.DB.First(&participant, "id = ? AND tournament_id = ?",
		c.Params("participant_id"), c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "participant not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch participant"})
	}

	payload, err := ComposeReminder(participant)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid phone number"})
	}

	metrics.RemindersComposed.Inc()
	return c.JSON(payload)
}

// StreamParticipants pushes the ordered roster and its totals over SSE for
// one tournament. The totals are recomputed on every snapshot.
func (s *ParticipantService) StreamParticipants(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	setSSEHeaders(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		metrics.OpenStreams.Inc()
		defer metrics.OpenStreams.Dec()

		watcher := watchParticipants(s.DB, tournamentID, s.WatchInterval)
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
					log.Printf("SSE participant query error for tournament %s: %v", tournamentID, snap.Err)
					_ = writeSSEEvent(w, "error", fiber.Map{"error": "failed to load participants"})
					return
				}
				payload := fiber.Map{
					"participants": snap.Items,
					"totals":       models.SumTotals(snap.Items),
				}
				if err := writeSSEEvent(w, "participants", payload); err != nil {
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

// optionalField trims an optional form value, storing NULL when empty.
func optionalField(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
