package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit shuffles the rows with the given seed and carves off
// testRatio of them for evaluation. The same table and seed always produce
// the same partitions. Tables with fewer rows than features, or splits that
// leave an empty partition, are fatal rather than silently defaulted.
func TrainTestSplit(X [][]float64, Y []int, testRatio float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int, err error) {
	if len(X) != len(Y) {
		return nil, nil, nil, nil, &DataError{Reason: "features and labels size mismatch"}
	}
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	if len(X) <= len(FeatureNames()) {
		return nil, nil, nil, nil, &DataError{Reason: fmt.Sprintf("only %d rows for %d features", len(X), len(FeatureNames()))}
	}

	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(len(X))
	split := int(math.Round(float64(len(X)) * (1 - testRatio)))
	if split <= 0 {
		return nil, nil, nil, nil, &DataError{Reason: "training partition is empty"}
	}
	if split >= len(X) {
		return nil, nil, nil, nil, &DataError{Reason: "evaluation partition is empty"}
	}

	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, X[idx])
			trainY = append(trainY, Y[idx])
		} else {
			testX = append(testX, X[idx])
			testY = append(testY, Y[idx])
		}
	}
	return trainX, trainY, testX, testY, nil
}
