package main

import (
	"flag"
	"fmt"
	"log"

	"oncoserve/db"
	"oncoserve/ml"
)

func main() {
	dataPath := flag.String("data", "", "labeled training table (CSV)")
	encoding := flag.String("encoding", "utf-8", "dataset encoding (utf-8 or latin1)")
	modelPath := flag.String("model_path", "./models/wdbc.model", "artifact output path")
	testRatio := flag.Float64("test_ratio", 0.2, "held-out evaluation ratio")
	seed := flag.Int64("seed", 42, "random seed for split and weight init")
	epochs := flag.Int("epochs", 300, "gradient descent epochs")
	lr := flag.Float64("lr", 0.1, "learning rate")
	dbPath := flag.String("db", "", "optional SQLite path for the training-run log")
	flag.Parse()

	if *dataPath == "" {
		log.Fatal("data is required")
	}

	artifact, err := ml.TrainPipeline(ml.TrainConfig{
		DataPath:     *dataPath,
		Encoding:     *encoding,
		ModelPath:    *modelPath,
		TestRatio:    *testRatio,
		Seed:         *seed,
		Epochs:       *epochs,
		LearningRate: *lr,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	m := artifact.Metrics
	log.Printf("accuracy=%.4f precision=%.4f recall=%.4f tp=%d tn=%d fp=%d fn=%d",
		m.Accuracy, m.Precision, m.Recall,
		m.TruePositives, m.TrueNegatives, m.FalsePositives, m.FalseNegatives)

	if *dbPath != "" {
		if err := db.InitDB(*dbPath); err != nil {
			log.Fatalf("failed to open training log: %v", err)
		}
		defer db.Close()

		run := db.TrainingRun{
			SchemaVersion: artifact.SchemaVersion,
			Accuracy:      m.Accuracy,
			Precision:     m.Precision,
			Recall:        m.Recall,
			Seed:          artifact.Seed,
			DataPoints:    m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives,
			TrainedAt:     artifact.TrainedAt,
		}
		if err := db.SaveTrainingRun(run); err != nil {
			log.Fatalf("failed to record training run: %v", err)
		}
	}

	fmt.Printf("model saved to %s\n", *modelPath)
}
