package ml

import (
	"math"

	"augur/pkg/errors"
)

// StandardScaler standardizes features to zero mean and unit variance.
// Fit on the training split only; the test split and live rows are transformed
// with the training statistics.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// NewStandardScaler creates an unfitted scaler
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit computes per-column mean and standard deviation
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "scaler fit requires a non-empty matrix")
	}

	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)

	n := float64(len(X))
	for _, row := range X {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}

	for _, row := range X {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		s.Scale[j] = math.Sqrt(s.Scale[j] / n)
		// Constant columns pass through unscaled
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}

	return nil
}

// Transform standardizes a matrix using the fitted statistics
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.TransformRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

// TransformRow standardizes a single feature vector
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, errors.Wrapf(errors.ErrInternal, "scaler is not fitted")
	}
	if len(row) != len(s.Mean) {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"feature count mismatch: scaler fitted on %d columns, got %d", len(s.Mean), len(row))
	}

	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}
