package ml

import (
	"encoding/json"
	"math"
	"sort"
)

// SchemaVersion tags every persisted artifact with the feature contract it was
// trained against. Bump it whenever FeatureNames changes.
const SchemaVersion = "wdbc-v1"

// FeatureNames returns the canonical ordered feature set. Column order here is
// the single source of truth for both the training table and request payloads.
func FeatureNames() []string {
	return []string{
		"radius_mean",
		"texture_mean",
		"perimeter_mean",
		"area_mean",
		"smoothness_mean",
		"compactness_mean",
		"concavity_mean",
		"concave_points_mean",
		"symmetry_mean",
		"fractal_dimension_mean",
		"radius_se",
		"texture_se",
		"perimeter_se",
		"area_se",
		"smoothness_se",
		"compactness_se",
		"concavity_se",
		"concave_points_se",
		"symmetry_se",
		"fractal_dimension_se",
		"radius_worst",
		"texture_worst",
		"perimeter_worst",
		"area_worst",
		"smoothness_worst",
		"compactness_worst",
		"concavity_worst",
		"concave_points_worst",
		"symmetry_worst",
		"fractal_dimension_worst",
	}
}

// FieldViolation describes one problem with a request payload field.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidatePayload checks a decoded request body against the feature schema and
// returns the ordered feature vector. Violations are collected rather than
// short-circuited so a client sees every problem in one round trip. Values
// must have been decoded with json.Decoder.UseNumber.
func ValidatePayload(payload map[string]interface{}) ([]float64, []FieldViolation) {
	names := FeatureNames()
	vector := make([]float64, len(names))
	var violations []FieldViolation

	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}

	for i, name := range names {
		raw, ok := payload[name]
		if !ok {
			violations = append(violations, FieldViolation{Field: name, Reason: "missing required field"})
			continue
		}
		number, ok := raw.(json.Number)
		if !ok {
			violations = append(violations, FieldViolation{Field: name, Reason: "value is not numeric"})
			continue
		}
		value, err := number.Float64()
		if err != nil {
			violations = append(violations, FieldViolation{Field: name, Reason: "value is not numeric"})
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			violations = append(violations, FieldViolation{Field: name, Reason: "value is not finite"})
			continue
		}
		vector[i] = value
	}

	extras := make([]string, 0)
	for field := range payload {
		if !known[field] {
			extras = append(extras, field)
		}
	}
	sort.Strings(extras)
	for _, field := range extras {
		violations = append(violations, FieldViolation{Field: field, Reason: "unknown field"})
	}

	if len(violations) > 0 {
		return nil, violations
	}
	return vector, nil
}
