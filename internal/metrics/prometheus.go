package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linac_qa_sessions_saved_total",
			Help: "Total QA sessions saved",
		},
		[]string{"qa_type"},
	)

	ReadingsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "linac_qa_output_readings_total",
			Help: "Total output constancy readings recorded",
		},
	)

	OutputDeviation = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "linac_qa_output_deviation_percent",
			Help:    "Output deviation from reference in percent",
			Buckets: []float64{-3, -2, -1, -0.5, 0, 0.5, 1, 2, 3},
		},
	)

	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linac_qa_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	BackupsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "linac_qa_backups_created_total",
			Help: "Total database backups created",
		},
	)

	ExportsServed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "linac_qa_exports_total",
			Help: "Total full JSON exports served",
		},
	)

	TrendCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linac_qa_trend_cache_hits_total",
			Help: "Trend cache lookups by result",
		},
		[]string{"result"},
	)

	EventClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "linac_qa_event_clients",
			Help: "Connected websocket event clients",
		},
	)
)

func Init() {
	prometheus.MustRegister(SessionsSaved)
	prometheus.MustRegister(ReadingsRecorded)
	prometheus.MustRegister(OutputDeviation)
	prometheus.MustRegister(LoginAttempts)
	prometheus.MustRegister(BackupsCreated)
	prometheus.MustRegister(ExportsServed)
	prometheus.MustRegister(TrendCacheHits)
	prometheus.MustRegister(EventClients)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
