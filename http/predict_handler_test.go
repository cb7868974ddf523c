package http

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"oncoserve/ml"
)

func predictPayload(radiusMean float64) string {
	fields := make([]string, 0, len(ml.FeatureNames()))
	for _, name := range ml.FeatureNames() {
		value := 1.0
		if name == "radius_mean" {
			value = radiusMean
		}
		fields = append(fields, fmt.Sprintf("%q: %g", name, value))
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

func postPredict(mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandlePredictKnownRecord(t *testing.T) {
	mux := newTestMux()
	defer SetInferenceService(nil)
	SetInferenceService(trainedService(t))
	silenceAudit(t)

	// A record from the training table keeps its known label end to end.
	w := postPredict(mux, predictPayload(10))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["prediction"].(float64) != 1 {
		t.Fatalf("expected malignant prediction, got %v", body)
	}
	sum := body["probability_benign"].(float64) + body["probability_malignant"].(float64)
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("probabilities sum to %f", sum)
	}

	w = postPredict(mux, predictPayload(0))
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["prediction"].(float64) != 0 {
		t.Fatalf("expected benign prediction, got %v", body)
	}
}

func TestHandlePredictDeterministic(t *testing.T) {
	mux := newTestMux()
	defer SetInferenceService(nil)
	SetInferenceService(trainedService(t))
	silenceAudit(t)

	first := postPredict(mux, predictPayload(10))
	second := postPredict(mux, predictPayload(10))
	if first.Body.String() != second.Body.String() {
		t.Fatalf("identical payloads produced different responses:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestHandlePredictValidationFailure(t *testing.T) {
	mux := newTestMux()
	defer SetInferenceService(nil)
	SetInferenceService(trainedService(t))

	payload := predictPayload(1)
	payload = strings.Replace(payload, `"texture_mean": 1, `, "", 1)
	payload = strings.Replace(payload, "{", `{"typo_field": 3, `, 1)

	w := postPredict(mux, payload)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}

	var violations []ml.FieldViolation
	if err := json.Unmarshal(w.Body.Bytes(), &violations); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected both violations in one response, got %v", violations)
	}
	fields := map[string]bool{}
	for _, v := range violations {
		fields[v.Field] = true
	}
	if !fields["texture_mean"] || !fields["typo_field"] {
		t.Fatalf("unexpected violation fields: %v", violations)
	}
}

func TestHandlePredictRejectsNonObjectBody(t *testing.T) {
	mux := newTestMux()
	defer SetInferenceService(nil)
	SetInferenceService(trainedService(t))

	w := postPredict(mux, `[1, 2, 3]`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestHandlePredictModelNotLoaded(t *testing.T) {
	mux := newTestMux()
	defer SetInferenceService(nil)
	SetInferenceService(ml.NewInferenceService(nil))

	w := postPredict(mux, predictPayload(1))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
