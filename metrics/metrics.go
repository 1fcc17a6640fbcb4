package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TournamentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "squadpay_tournaments_created_total", Help: "Total tournaments created"},
	)
	ParticipantsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "squadpay_participants_added_total", Help: "Total participants registered"},
	)
	PaymentsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "squadpay_payments_recorded_total", Help: "Total paid-amount updates persisted"},
	)
	RemindersComposed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "squadpay_reminders_composed_total", Help: "Total WhatsApp reminder links composed"},
	)
	ReceiptsRendered = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "squadpay_receipts_rendered_total", Help: "Total receipt images rasterized"},
	)
	OpenStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "squadpay_open_streams", Help: "Currently open SSE subscriptions"},
	)
)

func Register() {
	prometheus.MustRegister(
		TournamentsCreated,
		ParticipantsAdded,
		PaymentsRecorded,
		RemindersComposed,
		ReceiptsRendered,
		OpenStreams,
	)
}
