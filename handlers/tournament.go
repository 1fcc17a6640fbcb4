package handlers

import (
	"squadpay-system/middleware"
	"squadpay-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, participantService *services.ParticipantService) {
	// 🔐 Everything on the dashboard requires the authenticated organizer session
	secured := app.Group("/", middleware.OrganizerContextMiddleware())

	// Tournaments
	secured.Post("/tournaments", tournamentService.CreateTournament)
	secured.Get("/tournaments", tournamentService.GetAllTournaments)
	secured.Get("/tournaments/stream", tournamentService.StreamTournaments)
	secured.Get("/dashboard/stream", tournamentService.StreamDashboard)
	secured.Get("/tournaments/:id", tournamentService.GetTournamentByID)
	secured.Get("/tournaments/:id/totals", tournamentService.GetTournamentTotals)

	// Roster
	secured.Get("/tournaments/:id/participants", participantService.GetParticipants)
	secured.Get("/tournaments/:id/participants/stream", participantService.StreamParticipants)
	secured.Post("/tournaments/:id/participants", participantService.AddParticipant)
	secured.Patch("/tournaments/:id/participants/:participant_id/paid", participantService.UpdatePaidAmount)
	secured.Get("/tournaments/:id/participants/:participant_id/reminder", participantService.GetReminderLink)
}
