package ml

import (
	"errors"
	"math"
	"math/rand"
)

// LogisticRegression is a binary classifier with sigmoid output over
// standardized features.
type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// TrainOptions holds the hyperparameters for gradient descent. The seed makes
// weight initialization reproducible.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
	Seed         int64
}

// Train fits the model with full-batch gradient descent on cross-entropy
// loss. The same data and the same seed always produce the same parameters.
func (m *LogisticRegression) Train(X [][]float64, Y []int, opts TrainOptions) error {
	if len(X) == 0 || len(Y) == 0 {
		return errors.New("features or labels empty")
	}
	if len(X) != len(Y) {
		return errors.New("features and labels size mismatch")
	}
	epochs := opts.Epochs
	if epochs <= 0 {
		epochs = 200
	}
	lr := opts.LearningRate
	if lr <= 0 {
		lr = 0.1
	}

	cols := len(X[0])
	rnd := rand.New(rand.NewSource(opts.Seed))
	m.Weights = make([]float64, cols)
	for j := range m.Weights {
		m.Weights[j] = rnd.NormFloat64() * 0.01
	}
	m.Bias = 0

	n := float64(len(X))
	for ep := 0; ep < epochs; ep++ {
		gW := make([]float64, cols)
		gb := 0.0
		for i, row := range X {
			if len(row) != cols {
				return errors.New("ragged feature matrix")
			}
			d := m.Proba(row) - float64(Y[i])
			for j, v := range row {
				gW[j] += d * v
			}
			gb += d
		}
		for j := range m.Weights {
			m.Weights[j] -= lr * gW[j] / n
		}
		m.Bias -= lr * gb / n
	}
	return nil
}

// Proba returns P(label==1) for one already-transformed vector.
func (m *LogisticRegression) Proba(x []float64) float64 {
	sum := m.Bias
	for j, v := range x {
		sum += m.Weights[j] * v
	}
	return sigmoid(sum)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
