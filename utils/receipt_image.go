// utils/receipt_image.go
package utils

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// ReceiptCard carries everything the rasterizer needs to draw one receipt.
// Amount fields arrive pre-formatted (FormatINR) so the renderer stays dumb.
type ReceiptCard struct {
	TournamentName  string
	ReceiptNumber   string
	IssuedOn        string
	ParticipantName string
	TeamName        string
	Contact         string
	Fee             string
	Paid            string
	Remaining       string
	Status          string
	PaymentRef      string
}

const (
	receiptBaseWidth  = 640
	receiptBaseHeight = 780
)

// RenderReceiptPNG draws the receipt card onto a white canvas and encodes it
// as PNG. scale=2 doubles the raster resolution for share-quality images;
// non-positive and non-finite scales fall back to 1.
func RenderReceiptPNG(card ReceiptCard, scale float64) ([]byte, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}

	w := int(receiptBaseWidth * scale)
	h := int(receiptBaseHeight * scale)
	dc := gg.NewContext(w, h)
	dc.Scale(scale, scale)

	regularFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	boldFont, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	face := func(f *truetype.Font, size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{Size: size})
	}

	// White card
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Logo block + brand header
	dc.SetRGB255(16, 185, 129)
	dc.DrawRoundedRectangle(40, 40, 48, 48, 10)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(face(boldFont, 20))
	dc.DrawStringAnchored("SP", 64, 64, 0.5, 0.5)

	dc.SetRGB255(100, 116, 139)
	dc.SetFontFace(face(boldFont, 13))
	dc.DrawString("SQUADPAY", 100, 58)
	dc.SetFontFace(face(regularFont, 11))
	dc.DrawString("Cricket Tournament Collections", 100, 76)

	dc.SetRGB255(15, 23, 42)
	dc.SetFontFace(face(boldFont, 24))
	dc.DrawString("Payment Receipt", 40, 134)
	dc.SetRGB255(71, 85, 105)
	dc.SetFontFace(face(regularFont, 15))
	dc.DrawString(card.TournamentName, 40, 158)

	// Status pill, top right
	switch card.Status {
	case "paid":
		dc.SetRGB255(16, 185, 129)
	case "partial":
		dc.SetRGB255(245, 158, 11)
	default:
		dc.SetRGB255(244, 63, 94)
	}
	pillW := 110.0
	dc.DrawRoundedRectangle(receiptBaseWidth-40-pillW, 44, pillW, 30, 15)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(face(boldFont, 12))
	dc.DrawStringAnchored(strings.ToUpper(card.Status), receiptBaseWidth-40-pillW/2, 59, 0.5, 0.5)

	// Receipt metadata under the pill
	dc.SetRGB255(71, 85, 105)
	dc.SetFontFace(face(regularFont, 12))
	metaY := 100.0
	dc.DrawStringAnchored("Receipt #: "+card.ReceiptNumber, receiptBaseWidth-40, metaY, 1, 0.5)
	metaY += 20
	dc.DrawStringAnchored("Date: "+card.IssuedOn, receiptBaseWidth-40, metaY, 1, 0.5)
	if card.PaymentRef != "" {
		metaY += 20
		dc.DrawStringAnchored("Payment Ref: "+card.PaymentRef, receiptBaseWidth-40, metaY, 1, 0.5)
	}

	// Divider
	dc.SetRGB255(226, 232, 240)
	dc.SetLineWidth(1)
	dc.DrawLine(40, 190, receiptBaseWidth-40, 190)
	dc.Stroke()

	// Participant / contact blocks
	dc.SetRGB255(100, 116, 139)
	dc.SetFontFace(face(boldFont, 11))
	dc.DrawString("PARTICIPANT", 40, 228)
	dc.DrawString("CONTACT", 360, 228)

	dc.SetRGB255(15, 23, 42)
	dc.SetFontFace(face(boldFont, 16))
	dc.DrawString(card.ParticipantName, 40, 254)

	dc.SetRGB255(71, 85, 105)
	dc.SetFontFace(face(regularFont, 13))
	team := card.TeamName
	if team == "" {
		team = "-"
	}
	dc.DrawString("Team: "+team, 40, 276)
	contact := card.Contact
	if contact == "" {
		contact = "Not provided"
	}
	dc.DrawString(contact, 360, 254)

	// Payment summary table
	dc.SetRGB255(100, 116, 139)
	dc.SetFontFace(face(boldFont, 11))
	dc.DrawString("PAYMENT SUMMARY", 40, 330)

	rows := []struct {
		label   string
		value   string
		r, g, b int
	}{
		{"Fee", card.Fee, 15, 23, 42},
		{"Paid", card.Paid, 5, 150, 105},
		{"Remaining", card.Remaining, 217, 119, 6},
	}
	y := 348.0
	rowH := 52.0
	for i, row := range rows {
		if i%2 == 0 {
			dc.SetRGB255(248, 250, 252)
			dc.DrawRectangle(40, y, receiptBaseWidth-80, rowH)
			dc.Fill()
		}
		dc.SetRGB255(71, 85, 105)
		dc.SetFontFace(face(regularFont, 14))
		dc.DrawStringAnchored(row.label, 60, y+rowH/2, 0, 0.5)
		dc.SetRGB255(row.r, row.g, row.b)
		dc.SetFontFace(face(boldFont, 15))
		dc.DrawStringAnchored(row.value, receiptBaseWidth-60, y+rowH/2, 1, 0.5)
		y += rowH
	}
	dc.SetRGB255(226, 232, 240)
	dc.DrawRoundedRectangle(40, 348, receiptBaseWidth-80, rowH*3, 8)
	dc.Stroke()

	// Footer note
	dc.SetRGB255(148, 163, 184)
	dc.SetFontFace(face(regularFont, 11))
	dc.DrawStringWrapped(
		"This is a system-generated receipt for tournament fee tracking using SquadPay. "+
			"For any corrections, please contact the tournament organizer.",
		40, float64(receiptBaseHeight)-120, 0, 0, receiptBaseWidth-80, 1.5, gg.AlignLeft)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode receipt PNG: %w", err)
	}
	return buf.Bytes(), nil
}
