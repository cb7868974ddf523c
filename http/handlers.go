package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"oncoserve/db"
	"oncoserve/ml"
	"oncoserve/monitoring"
)

var (
	service *ml.InferenceService
	monitor *monitoring.Hub

	// Swapped out in tests.
	auditPrediction = db.SavePrediction
)

// SetInferenceService injects the model service used by the handlers.
func SetInferenceService(svc *ml.InferenceService) {
	service = svc
}

// SetMonitor injects the optional WebSocket monitor hub.
func SetMonitor(hub *monitoring.Hub) {
	monitor = hub
}

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/predict", handlePredict)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/model", handleModel)
	mux.HandleFunc("GET /api/predictions", handlePredictions)
	mux.HandleFunc("GET /api/ws/monitor", handleMonitorWS)
}

// handleHealth reports the serving state with no side effects.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded := service != nil && service.Loaded()
	status := "healthy"
	if !loaded {
		status = "unhealthy"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       status,
		"model_loaded": loaded,
	})
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	if service == nil || !service.Loaded() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "model not loaded"})
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	var payload map[string]interface{}
	if err := decoder.Decode(&payload); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, []ml.FieldViolation{
			{Field: "body", Reason: "request body is not a JSON object"},
		})
		return
	}

	vector, violations := ml.ValidatePayload(payload)
	if len(violations) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, violations)
		return
	}

	prediction, err := service.Predict(vector)
	if err != nil {
		if errors.Is(err, ml.ErrModelNotLoaded) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "model not loaded"})
			return
		}
		zap.L().Error("prediction failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "prediction failed"})
		return
	}

	// Audit and monitoring never affect the response.
	if err := auditPrediction(prediction, ml.SchemaVersion); err != nil {
		zap.L().Warn("failed to record prediction", zap.Error(err))
	}
	if monitor != nil {
		monitor.SendPrediction(monitoring.PredictionMessage{
			Label:                prediction.Label,
			ProbabilityBenign:    prediction.ProbBenign,
			ProbabilityMalignant: prediction.ProbMalignant,
			Timestamp:            time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, prediction)
}

// handleModel exposes metadata of the loaded artifact, never its parameters.
func handleModel(w http.ResponseWriter, r *http.Request) {
	if service == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "model not loaded"})
		return
	}
	artifact := service.Artifact()
	if artifact == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "model not loaded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schema_version": artifact.SchemaVersion,
		"feature_count":  len(artifact.FeatureNames),
		"trained_at":     artifact.TrainedAt,
		"seed":           artifact.Seed,
		"metrics":        artifact.Metrics,
	})
}

func handlePredictions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := db.QueryPredictions(limit)
	if err != nil {
		zap.L().Error("failed to query predictions", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load predictions"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": records})
}

func handleMonitorWS(w http.ResponseWriter, r *http.Request) {
	if monitor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "monitor not running"})
		return
	}
	monitor.HandleWebSocket(w, r)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}
