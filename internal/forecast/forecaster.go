package forecast

import (
	"fmt"
	"log"
	"time"

	"github.com/lox/gridcast/internal/metrics"
	"github.com/lox/gridcast/internal/models"
)

// Forecaster refits the model on every call. It holds no fitted state, so
// it is safe for concurrent use.
type Forecaster struct {
	series models.DailySeries
	order  Order
}

func NewForecaster(series models.DailySeries) *Forecaster {
	return &Forecaster{series: series, order: DefaultOrder}
}

func (f *Forecaster) Series() models.DailySeries {
	return f.series
}

// Forecast fits on every value dated on or before cutoff and predicts
// horizon consecutive days starting the day after cutoff.
func (f *Forecaster) Forecast(cutoff time.Time, horizon int) ([]models.ForecastPoint, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}
	cutoff = models.Day(cutoff)

	history := f.series.Until(cutoff)
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: no data on or before %s", ErrSeriesTooShort, cutoff.Format("2006-01-02"))
	}

	start := time.Now()
	fit, err := Predict(history.Values(), f.order, horizon)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ModelFitsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ModelFitsTotal.WithLabelValues("ok").Inc()
	metrics.ModelFitLatency.Observe(elapsed.Seconds())
	if fit.Degenerate {
		log.Printf("forecast: differenced series to %s is constant, projecting step over %d days",
			cutoff.Format("2006-01-02"), fit.NObs)
	} else {
		log.Printf("forecast: fitted ARIMA%s on %d days to %s in %s (aic=%.1f)",
			f.order, fit.NObs, cutoff.Format("2006-01-02"), elapsed.Round(time.Millisecond), fit.AIC)
	}

	values := fit.Forecast
	points := make([]models.ForecastPoint, horizon)
	for i, v := range values {
		points[i] = models.ForecastPoint{Date: cutoff.AddDate(0, 0, i+1), Value: v}
	}
	return points, nil
}
