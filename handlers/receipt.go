package handlers

import (
	"squadpay-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupReceiptRoutes registers the receipt view. These stay public so a
// receipt link can be opened by the participant it was shared with.
func SetupReceiptRoutes(app *fiber.App, receiptService *services.ReceiptService) {
	app.Get("/t/:tournament_id/receipt/:participant_id", receiptService.GetReceipt)
	app.Get("/t/:tournament_id/receipt/:participant_id/image", receiptService.GetReceiptImage)
	app.Post("/t/:tournament_id/receipt/:participant_id/share", receiptService.ShareReceipt)
	app.Get("/t/:tournament_id/receipt/:participant_id/stream", receiptService.StreamReceipt)
}
