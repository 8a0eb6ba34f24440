package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_admin_http_requests_total",
		Help: "HTTP requests by route, method and status class.",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleet_admin_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	DriverRegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_admin_driver_registrations_total",
		Help: "Driver registration attempts by outcome.",
	}, []string{"outcome"})

	DriverRegistrationRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_admin_driver_registration_rollbacks_total",
		Help: "Compensating rollbacks performed after a failed registration step.",
	})

	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_admin_uploads_total",
		Help: "File uploads by bucket and outcome.",
	}, []string{"bucket", "outcome"})

	ReferralValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_admin_referral_validations_total",
		Help: "Referral code validations by outcome.",
	}, []string{"outcome"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_admin_websocket_clients",
		Help: "Currently connected notification stream clients.",
	})
)
