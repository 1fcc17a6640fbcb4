// services/tournament_service.go
package services

import (
	"bufio"
	"errors"
	"log"
	"strings"
	"time"

	"squadpay-system/metrics"
	"squadpay-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TournamentService struct {
	DB            *gorm.DB
	WatchInterval time.Duration
}

func NewTournamentService(db *gorm.DB) *TournamentService {
	return &TournamentService{DB: db, WatchInterval: 2 * time.Second}
}

// CreateTournament persists a new tournament. The name is the only input;
// a blank or whitespace-only name is rejected with no mutation.
func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "tournament name is required"})
	}

	tournament := &models.Tournament{
		ID:   uuid.NewString(),
		Name: name,
	}
	if err := s.DB.Create(tournament).Error; err != nil {
		log.Printf("ERROR creating tournament: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create tournament"})
	}

	metrics.TournamentsCreated.Inc()
	return c.Status(201).JSON(tournament)
}

// GetAllTournaments lists every tournament ordered by creation time ascending.
func (s *TournamentService) GetAllTournaments(c *fiber.Ctx) error {
	var tournaments []models.Tournament
	if err := s.DB.Order("created_at ASC").Find(&tournaments).Error; err != nil {
		log.Printf("ERROR fetching tournaments: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	return c.JSON(tournaments)
}

func (s *TournamentService) GetTournamentByID(c *fiber.Ctx) error {
	var tournament models.Tournament
	err := s.DB.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&tournament, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		log.Printf("ERROR fetching tournament %s: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournament"})
	}
	tournament.ParticipantsCount = int64(len(tournament.Participants))
	return c.JSON(tournament)
}

// GetTournamentTotals sums fee/paid/remaining over the tournament's roster.
// Totals are derived on every call, never persisted.
func (s *TournamentService) GetTournamentTotals(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournament"})
	}

	var participants []models.Participant
	if err := s.DB.Where("tournament_id = ?", tournamentID).Find(&participants).Error; err != nil {
		log.Printf("ERROR fetching participants for totals: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch participants"})
	}

	return c.JSON(models.SumTotals(participants))
}

// StreamTournaments pushes the ordered tournament list over SSE whenever it
// changes. A query error ends the stream after one terminal error event.
func (s *TournamentService) StreamTournaments(c *fiber.Ctx) error {
	setSSEHeaders(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		metrics.OpenStreams.Inc()
		defer metrics.OpenStreams.Dec()

		watcher := watchTournaments(s.DB, s.WatchInterval)
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
					log.Printf("SSE tournament query error: %v", snap.Err)
					_ = writeSSEEvent(w, "error", fiber.Map{"error": "failed to load tournaments"})
					return
				}
				if err := writeSSEEvent(w, "tournaments", snap.Items); err != nil {
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

// StreamDashboard is the full live roster view: tournament list plus the
// roster and totals of the selected tournament. With no tournament_id query
// param the session defaults to the first tournament once the list is
// non-empty. Any Failed state is terminal for the stream; the client
// reconnects to restart the machine.
func (s *TournamentService) StreamDashboard(c *fiber.Ctx) error {
	selected := c.Query("tournament_id")
	setSSEHeaders(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		metrics.OpenStreams.Inc()
		defer metrics.OpenStreams.Dec()

		session := NewRosterSession(s.DB, s.WatchInterval)
		defer session.Close()
		if selected != "" {
			session.Select(selected)
		}

		if err := writeSSEKeepalive(w); err != nil {
			return
		}
		keepalive := time.NewTicker(sseKeepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case update, ok := <-session.Updates():
				if !ok {
					return
				}
				if err := writeSSEEvent(w, "roster", update); err != nil {
					return
				}
				if update.State == RosterFailed {
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
