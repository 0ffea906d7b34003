package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridcast_fetch_requests_total",
			Help: "Total daily report downloads",
		},
		[]string{"status"},
	)

	FetchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridcast_fetch_latency_seconds",
			Help:    "Daily report download latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StationDaysLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridcast_station_days_loaded_total",
			Help: "Total station-day readings loaded from source tables",
		},
	)

	SeriesDays = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridcast_series_days",
			Help: "Number of days in the national daily series",
		},
	)

	ModelFitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridcast_model_fits_total",
			Help: "Total ARIMA fits by outcome",
		},
		[]string{"status"},
	)

	ModelFitLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridcast_model_fit_seconds",
			Help:    "ARIMA fit duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	ForecastRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridcast_forecast_requests_total",
			Help: "Total forecast requests by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	NarrativeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridcast_narrative_requests_total",
			Help: "Total narrative generation calls",
		},
		[]string{"status"},
	)
)
