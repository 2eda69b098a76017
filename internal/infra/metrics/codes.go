package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		codesCreatedTotal,
		codesRedeemedTotal,
		redemptionsRejectedTotal,
	)
}

var (
	codesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codes_created_total",
			Help: "Total number of redemption codes created by the admin.",
		},
	)

	codesRedeemedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codes_redeemed_total",
			Help: "Total number of successfully redeemed codes.",
		},
	)

	redemptionsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_rejected_total",
			Help: "Total number of rejected redemption attempts by reason.",
		},
		[]string{"reason"}, // 'invalid_code', 'already_used', 'store_error'
	)
)

func IncCodesCreated() {
	codesCreatedTotal.Inc()
}

func IncCodesRedeemed() {
	codesRedeemedTotal.Inc()
}

func IncRedemptionRejected(reason string) {
	redemptionsRejectedTotal.WithLabelValues(reason).Inc()
}
