// Package weights folds each locality's metric vector into one priority weight.
package weights

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"example.com/your_project/facility-location/internal/facility"
)

// Config holds the lambda coefficients and the inversion flags. A nil Invert
// disables inversion; otherwise it must have one 0/1 flag per metric.
type Config struct {
	Lambda []float64
	Invert []int
}

// InvalidWeightConfigError reports a weight configuration that does not fit
// the metric matrix.
type InvalidWeightConfigError struct {
	Reason string
}

func (e *InvalidWeightConfigError) Error() string {
	return "invalid weight config: " + e.Reason
}

// Is lets callers treat a bad weight config as any other input validation
// failure.
func (e *InvalidWeightConfigError) Is(target error) bool {
	return target == facility.ErrInputValidation
}

// Validate checks cfg against a metric width m.
func (cfg Config) Validate(m int) error {
	if len(cfg.Lambda) != m {
		return &InvalidWeightConfigError{Reason: fmt.Sprintf("%d weights for %d metrics", len(cfg.Lambda), m)}
	}
	if cfg.Invert == nil {
		return nil
	}
	if len(cfg.Invert) != m {
		return &InvalidWeightConfigError{Reason: fmt.Sprintf("%d inversion flags for %d metrics", len(cfg.Invert), m)}
	}
	for j, f := range cfg.Invert {
		if f != 0 && f != 1 {
			return &InvalidWeightConfigError{Reason: fmt.Sprintf("inversion flag %d is %d, want 0 or 1", j, f)}
		}
	}
	return nil
}

// Aggregate returns w[i] = sum_j Lambda[j] * metrics[i][j], where metrics
// flagged for inversion are replaced by their reciprocal unless zero. The
// input rows are not modified.
func Aggregate(metrics [][]float64, cfg Config) ([]float64, error) {
	m := len(cfg.Lambda)
	if len(metrics) > 0 {
		m = len(metrics[0])
	}
	if err := cfg.Validate(m); err != nil {
		return nil, err
	}
	n := len(metrics)
	if n == 0 {
		return []float64{}, nil
	}
	if m == 0 {
		return make([]float64, n), nil
	}

	data := make([]float64, 0, n*m)
	for i, row := range metrics {
		if len(row) != m {
			return nil, &InvalidWeightConfigError{Reason: fmt.Sprintf("locality %d has %d metrics, want %d", i, len(row), m)}
		}
		for j, v := range row {
			if cfg.Invert != nil && cfg.Invert[j] == 1 && v != 0 {
				v = 1 / v
			}
			data = append(data, v)
		}
	}

	M := mat.NewDense(n, m, data)
	lambda := mat.NewVecDense(m, append([]float64(nil), cfg.Lambda...))
	w := mat.NewVecDense(n, nil)
	w.MulVec(M, lambda)

	out := make([]float64, n)
	for i := range out {
		out[i] = w.AtVec(i)
	}
	return out, nil
}
