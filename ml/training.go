package ml

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// TrainConfig drives one offline training run.
type TrainConfig struct {
	DataPath     string
	Encoding     string
	ModelPath    string
	TestRatio    float64
	Seed         int64
	Epochs       int
	LearningRate float64
}

// TrainPipeline runs the full offline process: load the labeled table, split
// with a fixed seed, fit the scaler on the training partition only, train the
// classifier on the transformed rows, evaluate on the held-out partition and
// persist the composed artifact.
//
// Given the same table and seed the persisted artifact is reproducible, up to
// floating-point rounding in math.Exp across platforms.
func TrainPipeline(config TrainConfig) (*Artifact, error) {
	if config.DataPath == "" {
		return nil, errors.New("data path is required")
	}
	if config.ModelPath == "" {
		return nil, errors.New("model path is required")
	}

	X, Y, err := LoadDataset(config.DataPath, config.Encoding)
	if err != nil {
		return nil, err
	}

	trainX, trainY, testX, testY, err := TrainTestSplit(X, Y, config.TestRatio, config.Seed)
	if err != nil {
		return nil, err
	}

	// The scaler never sees the evaluation partition.
	var scaler StandardScaler
	if err := scaler.Fit(trainX); err != nil {
		return nil, err
	}
	scaledTrain, err := scaler.Transform(trainX)
	if err != nil {
		return nil, err
	}

	var model LogisticRegression
	opts := TrainOptions{Epochs: config.Epochs, LearningRate: config.LearningRate, Seed: config.Seed}
	if err := model.Train(scaledTrain, trainY, opts); err != nil {
		return nil, err
	}

	scaledTest, err := scaler.Transform(testX)
	if err != nil {
		return nil, err
	}
	metrics := Evaluate(&model, scaledTest, testY)

	artifact := &Artifact{
		SchemaVersion: SchemaVersion,
		FeatureNames:  FeatureNames(),
		Scaler:        scaler,
		Model:         model,
		TrainedAt:     time.Now().UTC(),
		Seed:          config.Seed,
		Metrics:       metrics,
	}
	if err := os.MkdirAll(filepath.Dir(config.ModelPath), 0o755); err != nil {
		return nil, err
	}
	if err := artifact.Save(config.ModelPath); err != nil {
		return nil, err
	}
	return artifact, nil
}
