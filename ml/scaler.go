package ml

import (
	"errors"
	"fmt"
	"math"
)

// StandardScaler centers each feature to zero mean and unit variance. The
// fitted parameters travel inside the artifact, so the exact transform learned
// during training is reapplied at inference time.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit learns per-feature mean and standard deviation. It must only ever see
// the training partition.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("training matrix is empty")
	}
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)
	for j := 0; j < cols; j++ {
		for i := range X {
			s.Mean[j] += X[i][j]
		}
		s.Mean[j] /= float64(len(X))
		v := 0.0
		for i := range X {
			d := X[i][j] - s.Mean[j]
			v += d * d
		}
		s.Std[j] = math.Sqrt(v / float64(len(X)))
		if s.Std[j] == 0 {
			// Constant column: transform collapses to zero instead of dividing by zero.
			s.Std[j] = 1
		}
	}
	return nil
}

// TransformVector is a pure function of the input vector and the fitted
// parameters: same inputs, same output, across restarts and across the
// training and inference contexts.
func (s *StandardScaler) TransformVector(x []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, errors.New("scaler not fitted")
	}
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

// Transform applies TransformVector row by row.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.TransformVector(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
