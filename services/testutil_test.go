package services

import (
	"testing"
	"time"

	"squadpay-system/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens an isolated in-memory sqlite database. The pool is pinned
// to a single connection so every query sees the same :memory: database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Tournament{}, &models.Participant{}))
	return db
}

// newTestApp wires the handlers against the test database without the auth
// middlewares: identity is out of scope for these tests.
func newTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	app := fiber.New()
	tournamentService := NewTournamentService(db)
	participantService := NewParticipantService(db)
	receiptService := NewReceiptService(db)

	app.Post("/tournaments", tournamentService.CreateTournament)
	app.Get("/tournaments", tournamentService.GetAllTournaments)
	app.Get("/tournaments/:id", tournamentService.GetTournamentByID)
	app.Get("/tournaments/:id/totals", tournamentService.GetTournamentTotals)
	app.Get("/tournaments/:id/participants", participantService.GetParticipants)
	app.Post("/tournaments/:id/participants", participantService.AddParticipant)
	app.Patch("/tournaments/:id/participants/:participant_id/paid", participantService.UpdatePaidAmount)
	app.Get("/tournaments/:id/participants/:participant_id/reminder", participantService.GetReminderLink)
	app.Get("/t/:tournament_id/receipt/:participant_id", receiptService.GetReceipt)
	app.Get("/t/:tournament_id/receipt/:participant_id/image", receiptService.GetReceiptImage)
	app.Post("/t/:tournament_id/receipt/:participant_id/share", receiptService.ShareReceipt)

	return app
}

func seedTournament(t *testing.T, db *gorm.DB, name string) models.Tournament {
	t.Helper()
	tournament := models.Tournament{ID: uuid.NewString(), Name: name}
	require.NoError(t, db.Create(&tournament).Error)
	return tournament
}

func seedParticipant(t *testing.T, db *gorm.DB, tournamentID, name string, due, paid float64) models.Participant {
	t.Helper()
	participant := models.Participant{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Name:         name,
		AmountDue:    due,
		AmountPaid:   paid,
		Status:       models.ComputeStatus(due, paid),
		CreatedAt:    time.Now(),
	}
	require.NoError(t, db.Create(&participant).Error)
	return participant
}
