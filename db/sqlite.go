package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"oncoserve/ml"
)

var database *sql.DB

// InitDB initializes the SQLite database used for the prediction audit log
// and the training-run history.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        predicted_label INTEGER NOT NULL,
        probability_benign REAL NOT NULL,
        probability_malignant REAL NOT NULL,
        schema_version VARCHAR(20) NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS training_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        schema_version VARCHAR(20) NOT NULL,
        accuracy REAL,
        precision REAL,
        recall REAL,
        seed INTEGER,
        data_points INTEGER,
        trained_at DATETIME NOT NULL
    );
    `

	_, err = database.Exec(query)
	return err
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// PredictionRecord is one row of the audit log.
type PredictionRecord struct {
	ID                   int64     `json:"id"`
	PredictedLabel       int       `json:"predicted_label"`
	ProbabilityBenign    float64   `json:"probability_benign"`
	ProbabilityMalignant float64   `json:"probability_malignant"`
	SchemaVersion        string    `json:"schema_version"`
	CreatedAt            time.Time `json:"created_at"`
}

// SavePrediction appends one served prediction to the audit log.
func SavePrediction(prediction ml.Prediction, schemaVersion string) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO predictions (
            predicted_label, probability_benign, probability_malignant, schema_version, created_at
        ) VALUES (?, ?, ?, ?, ?)`,
		prediction.Label,
		prediction.ProbBenign,
		prediction.ProbMalignant,
		schemaVersion,
		time.Now().UTC(),
	)
	return err
}

// QueryPredictions returns the most recent audit rows, newest first.
func QueryPredictions(limit int) ([]PredictionRecord, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT id, predicted_label, probability_benign, probability_malignant, schema_version, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var r PredictionRecord
		if err := rows.Scan(&r.ID, &r.PredictedLabel, &r.ProbabilityBenign, &r.ProbabilityMalignant, &r.SchemaVersion, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// TrainingRun records the evaluation of one offline training run.
type TrainingRun struct {
	SchemaVersion string    `json:"schema_version"`
	Accuracy      float64   `json:"accuracy"`
	Precision     float64   `json:"precision"`
	Recall        float64   `json:"recall"`
	Seed          int64     `json:"seed"`
	DataPoints    int       `json:"data_points"`
	TrainedAt     time.Time `json:"trained_at"`
}

// SaveTrainingRun appends one training run to the history.
func SaveTrainingRun(run TrainingRun) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO training_runs (
            schema_version, accuracy, precision, recall, seed, data_points, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.SchemaVersion,
		run.Accuracy,
		run.Precision,
		run.Recall,
		run.Seed,
		run.DataPoints,
		run.TrainedAt,
	)
	return err
}

// LoadTrainingRuns returns the training history, newest first.
func LoadTrainingRuns() ([]TrainingRun, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT schema_version, accuracy, precision, recall, seed, data_points, trained_at
        FROM training_runs
        ORDER BY trained_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		var run TrainingRun
		if err := rows.Scan(&run.SchemaVersion, &run.Accuracy, &run.Precision, &run.Recall, &run.Seed, &run.DataPoints, &run.TrainedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
