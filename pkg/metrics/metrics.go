package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goclean_registrations_total",
			Help: "Registration stage transitions",
		},
		[]string{"stage"},
	)

	OTPFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goclean_otp_failures_total",
			Help: "Rejected one-time codes by purpose",
		},
		[]string{"purpose"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goclean_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	ReferralCreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goclean_referral_credits_total",
			Help: "Credits granted to referrers by reward tier",
		},
		[]string{"tier"},
	)

	SideEffectFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goclean_side_effect_failures_total",
			Help: "Best-effort side effects that failed (email, sms, push, realtime, upload)",
		},
		[]string{"kind"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goclean_notifications_total",
			Help: "Notifications created by type",
		},
		[]string{"type"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
