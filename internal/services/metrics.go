package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// profilesCreated counts profiles inserted by ProfileService.Create.
	profilesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qrtag_profiles_created_total",
		Help: "Total number of profiles created.",
	})

	// qrCollisions counts candidate QR-code IDs rejected because they were
	// already taken (found by the existence check or by the unique index).
	qrCollisions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qrtag_qr_code_collisions_total",
		Help: "Total number of generated QR-code IDs that collided with an existing profile.",
	})

	// idempotentReplays counts POSTs answered from an Idempotency-Key record.
	idempotentReplays = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qrtag_idempotent_replays_total",
		Help: "Total number of profile creations answered by idempotent replay.",
	})
)

func init() {
	prometheus.MustRegister(profilesCreated, qrCollisions, idempotentReplays)
}
