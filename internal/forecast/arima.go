// Package forecast fits the national daily series and routes free-text
// requests to forecast views.
package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/goarima/arima"
	"github.com/sartorproj/goarima/timeseries"
)

var (
	ErrSeriesTooShort   = errors.New("series too short for model order")
	ErrNonFinite        = errors.New("series contains non-finite values")
	ErrUnsupportedOrder = errors.New("unsupported model order")
)

// Order is an ARIMA (p, d, q) order.
type Order struct {
	P, D, Q int
}

// DefaultOrder is the fixed order used for every request.
var DefaultOrder = Order{P: 5, D: 1, Q: 0}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// MinObservations is the shortest series Predict accepts for the order:
// after differencing there must be more observations than coefficients.
func (o Order) MinObservations() int {
	return o.D + 2*(o.P+o.Q) + 1
}

// Fit is the outcome of one model fit.
type Fit struct {
	Order    Order
	NObs     int
	AIC      float64
	Forecast []float64
	// Degenerate is set when the differenced series was constant and the
	// step was projected without fitting.
	Degenerate bool
}

// Predict fits an ARIMA model of order on values from scratch and
// forecasts steps values past the end. values is not modified.
func Predict(values []float64, order Order, steps int) (*Fit, error) {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOrder, order)
	}
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}
	if len(values) < order.MinObservations() {
		return nil, fmt.Errorf("%w: have %d observations, need %d for ARIMA%s",
			ErrSeriesTooShort, len(values), order.MinObservations(), order)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: index %d", ErrNonFinite, i)
		}
	}

	fit := &Fit{Order: order, NObs: len(values)}
	if step, ok := constantStep(values, order.D); ok {
		fit.Forecast = projectStep(values, order.D, step, steps)
		fit.Degenerate = true
		return fit, nil
	}

	series := &timeseries.Series{Values: append([]float64(nil), values...)}
	model := arima.New(order.P, order.D, order.Q)
	if err := model.Fit(series); err != nil {
		return nil, fmt.Errorf("fit ARIMA%s: %w", order, err)
	}
	forecast, err := model.Predict(steps)
	if err != nil {
		return nil, fmt.Errorf("predict ARIMA%s: %w", order, err)
	}
	if len(forecast) != steps {
		return nil, fmt.Errorf("predict ARIMA%s: got %d values, want %d", order, len(forecast), steps)
	}
	for i, v := range forecast {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: forecast step %d", ErrNonFinite, i+1)
		}
	}

	fit.AIC = model.AIC
	fit.Forecast = forecast
	return fit, nil
}

// constantStep reports whether the d-times differenced series is constant,
// which leaves the model with zero residual variance.
func constantStep(values []float64, d int) (float64, bool) {
	w := values
	for k := 0; k < d; k++ {
		w = difference(w)
	}
	if len(w) == 0 {
		return 0, false
	}
	for _, v := range w[1:] {
		if v != w[0] {
			return 0, false
		}
	}
	return w[0], true
}

// projectStep continues a series whose d-th difference is constant.
func projectStep(values []float64, d int, step float64, steps int) []float64 {
	levels := make([][]float64, d+1)
	levels[0] = append([]float64(nil), values...)
	for k := 1; k <= d; k++ {
		levels[k] = difference(levels[k-1])
	}

	out := make([]float64, steps)
	for h := range out {
		levels[d] = append(levels[d], step)
		for k := d - 1; k >= 0; k-- {
			lk, above := levels[k], levels[k+1]
			levels[k] = append(lk, lk[len(lk)-1]+above[len(above)-1])
		}
		out[h] = levels[0][len(levels[0])-1]
	}
	return out
}

func difference(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := range out {
		out[i] = values[i+1] - values[i]
	}
	return out
}
