package ml

import (
	"encoding/json"
	"testing"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := [][]float64{
		{1, 10},
		{3, 10},
	}
	var scaler StandardScaler
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaler.Mean[0] != 2 {
		t.Fatalf("expected mean 2, got %f", scaler.Mean[0])
	}
	// Constant column keeps std 1 so the transform stays total.
	if scaler.Std[1] != 1 {
		t.Fatalf("expected std 1 for constant column, got %f", scaler.Std[1])
	}

	out, err := scaler.TransformVector([]float64{1, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0] != -1 || out[1] != 0 {
		t.Fatalf("unexpected transform: %v", out)
	}
}

func TestTransformVectorIsPure(t *testing.T) {
	scaler := StandardScaler{Mean: []float64{1, 2}, Std: []float64{0.5, 4}}
	input := []float64{2, 10}

	first, err := scaler.TransformVector(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := scaler.TransformVector(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for j := range first {
		if first[j] != second[j] {
			t.Fatalf("transform not deterministic: %v vs %v", first, second)
		}
	}
	if input[0] != 2 || input[1] != 10 {
		t.Fatalf("transform mutated its input: %v", input)
	}
}

func TestScalerSurvivesSerialization(t *testing.T) {
	X := [][]float64{{1, 4}, {2, 5}, {3, 9}}
	var fitted StandardScaler
	if err := fitted.Fit(X); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, err := json.Marshal(&fitted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var restored StandardScaler
	if err := json.Unmarshal(payload, &restored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input := []float64{1.7, 6.3}
	before, err := fitted.TransformVector(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, err := restored.TransformVector(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for j := range before {
		if before[j] != after[j] {
			t.Fatalf("transform changed across serialization: %v vs %v", before, after)
		}
	}
}

func TestTransformVectorRejectsWrongWidth(t *testing.T) {
	scaler := StandardScaler{Mean: []float64{0, 0}, Std: []float64{1, 1}}
	if _, err := scaler.TransformVector([]float64{1}); err == nil {
		t.Fatal("expected error for short vector")
	}
	var unfitted StandardScaler
	if _, err := unfitted.TransformVector([]float64{1}); err == nil {
		t.Fatal("expected error for unfitted scaler")
	}
}
