package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"oncoserve/ml"
)

func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	return mux
}

// trainedService builds a service over a separable table where the
// radius_mean column carries all the signal.
func trainedService(t *testing.T) *ml.InferenceService {
	t.Helper()

	names := ml.FeatureNames()
	X := make([][]float64, 200)
	Y := make([]int, 200)
	for i := range X {
		row := make([]float64, len(names))
		for j := range row {
			row[j] = 1
		}
		if i%2 == 1 {
			row[0] = 10
			Y[i] = 1
		}
		X[i] = row
	}

	var scaler ml.StandardScaler
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scaled, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var model ml.LogisticRegression
	if err := model.Train(scaled, Y, ml.TrainOptions{Epochs: 300, LearningRate: 0.5, Seed: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	artifact := &ml.Artifact{
		SchemaVersion: ml.SchemaVersion,
		FeatureNames:  names,
		Scaler:        scaler,
		Model:         model,
		TrainedAt:     time.Unix(1700000000, 0).UTC(),
		Seed:          1,
	}
	path := filepath.Join(t.TempDir(), "wdbc.model")
	if err := artifact.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service := ml.NewInferenceService(nil)
	if err := service.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return service
}

func silenceAudit(t *testing.T) {
	t.Helper()
	original := auditPrediction
	auditPrediction = func(ml.Prediction, string) error { return nil }
	t.Cleanup(func() { auditPrediction = original })
}

func TestHandleHealthReflectsLoadState(t *testing.T) {
	mux := newTestMux()
	defer SetInferenceService(nil)

	SetInferenceService(ml.NewInferenceService(nil))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["status"] != "unhealthy" || body["model_loaded"] != false {
		t.Fatalf("unexpected body before load: %v", body)
	}

	SetInferenceService(trainedService(t))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["status"] != "healthy" || body["model_loaded"] != true {
		t.Fatalf("unexpected body after load: %v", body)
	}
}

func TestHandleModelMetadata(t *testing.T) {
	mux := newTestMux()
	defer SetInferenceService(nil)
	SetInferenceService(trainedService(t))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/model", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["schema_version"] != ml.SchemaVersion {
		t.Fatalf("unexpected schema version: %v", body)
	}
	if body["feature_count"].(float64) != float64(len(ml.FeatureNames())) {
		t.Fatalf("unexpected feature count: %v", body)
	}
	if _, ok := body["metrics"]; !ok {
		t.Fatalf("metrics missing: %v", body)
	}
}

func TestHandleModelUnloaded(t *testing.T) {
	mux := newTestMux()
	defer SetInferenceService(nil)
	SetInferenceService(ml.NewInferenceService(nil))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/model", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
