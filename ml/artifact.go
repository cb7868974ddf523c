package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Metrics captures the held-out evaluation of a trained artifact.
type Metrics struct {
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	TruePositives  int     `json:"true_positives"`
	TrueNegatives  int     `json:"true_negatives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
}

// Prediction is the per-request output. The two probabilities always sum to
// one up to floating-point rounding.
type Prediction struct {
	Label         int     `json:"prediction"`
	ProbBenign    float64 `json:"probability_benign"`
	ProbMalignant float64 `json:"probability_malignant"`
}

// Artifact bundles the fitted scaler and classifier with the schema version
// they were trained against. It is immutable after training: the server only
// ever replaces it whole, never edits it in place.
type Artifact struct {
	SchemaVersion string             `json:"schema_version"`
	FeatureNames  []string           `json:"feature_names"`
	Scaler        StandardScaler     `json:"scaler"`
	Model         LogisticRegression `json:"model"`
	TrainedAt     time.Time          `json:"trained_at"`
	Seed          int64              `json:"seed"`
	Metrics       Metrics            `json:"metrics"`
}

// Predict threads one validated feature vector through the embedded scaler
// and then the classifier, using only parameters fitted at training time.
func (a *Artifact) Predict(vector []float64) (Prediction, error) {
	scaled, err := a.Scaler.TransformVector(vector)
	if err != nil {
		return Prediction{}, err
	}
	probMalignant := a.Model.Proba(scaled)
	label := 0
	if probMalignant >= 0.5 {
		label = 1
	}
	return Prediction{
		Label:         label,
		ProbBenign:    1 - probMalignant,
		ProbMalignant: probMalignant,
	}, nil
}

// Save persists the artifact as one JSON blob. The write goes through a
// temporary file and a rename so watchers never observe a half-written blob.
func (a *Artifact) Save(path string) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadArtifact reads a persisted artifact and fails closed: a blob trained
// against a different feature contract than the running schema is rejected
// rather than silently scoring mismatched columns.
func LoadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	if artifact.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: artifact %q, running %q", ErrSchemaMismatch, artifact.SchemaVersion, SchemaVersion)
	}
	names := FeatureNames()
	if len(artifact.FeatureNames) != len(names) {
		return nil, fmt.Errorf("%w: artifact has %d features, schema has %d", ErrSchemaMismatch, len(artifact.FeatureNames), len(names))
	}
	for i, name := range names {
		if artifact.FeatureNames[i] != name {
			return nil, fmt.Errorf("%w: feature %d is %q, schema expects %q", ErrSchemaMismatch, i, artifact.FeatureNames[i], name)
		}
	}
	if len(artifact.Scaler.Mean) != len(names) || len(artifact.Scaler.Std) != len(names) {
		return nil, fmt.Errorf("%w: scaler parameters do not cover the schema", ErrSchemaMismatch)
	}
	if len(artifact.Model.Weights) != len(names) {
		return nil, fmt.Errorf("%w: classifier weights do not cover the schema", ErrSchemaMismatch)
	}
	return &artifact, nil
}
