package ml

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// LabelColumn is the one extra column the training table carries next to the
// schema features.
const LabelColumn = "diagnosis"

// LoadDataset reads a labeled training table. The header must carry exactly
// the schema features plus the diagnosis column, in any order. Any malformed
// row aborts the load with a DataError.
func LoadDataset(path, encoding string) ([][]float64, []int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
	case "latin1", "iso-8859-1":
		// Some clinical systems export Latin-1; normalize before parsing.
		reader = transform.NewReader(file, charmap.ISO8859_1.NewDecoder())
	default:
		return nil, nil, fmt.Errorf("unsupported dataset encoding %q", encoding)
	}

	records, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		return nil, nil, &DataError{Reason: err.Error()}
	}
	if len(records) < 2 {
		return nil, nil, &DataError{Reason: "dataset has no data rows"}
	}

	names := FeatureNames()
	header := records[0]
	columns, labelIdx, err := mapHeader(header, names)
	if err != nil {
		return nil, nil, err
	}

	X := make([][]float64, 0, len(records)-1)
	Y := make([]int, 0, len(records)-1)
	for rowIdx, record := range records[1:] {
		row := rowIdx + 2 // 1-based, counting the header
		if len(record) != len(header) {
			return nil, nil, &DataError{Row: row, Reason: "wrong column count"}
		}
		vector := make([]float64, len(names))
		for i, col := range columns {
			value, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, nil, &DataError{Row: row, Reason: fmt.Sprintf("%s is not numeric", names[i])}
			}
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return nil, nil, &DataError{Row: row, Reason: fmt.Sprintf("%s is not finite", names[i])}
			}
			vector[i] = value
		}
		label, err := parseLabel(record[labelIdx])
		if err != nil {
			return nil, nil, &DataError{Row: row, Reason: err.Error()}
		}
		X = append(X, vector)
		Y = append(Y, label)
	}
	return X, Y, nil
}

func mapHeader(header, names []string) ([]int, int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	if len(index) != len(names)+1 {
		return nil, 0, &DataError{Reason: fmt.Sprintf("expected %d columns, got %d", len(names)+1, len(index))}
	}
	columns := make([]int, len(names))
	for i, name := range names {
		col, ok := index[name]
		if !ok {
			return nil, 0, &DataError{Reason: "missing column " + name}
		}
		columns[i] = col
	}
	labelIdx, ok := index[LabelColumn]
	if !ok {
		return nil, 0, &DataError{Reason: "missing column " + LabelColumn}
	}
	return columns, labelIdx, nil
}

func parseLabel(raw string) (int, error) {
	switch strings.TrimSpace(raw) {
	case "0", "B", "b":
		return 0, nil
	case "1", "M", "m":
		return 1, nil
	}
	return 0, fmt.Errorf("diagnosis %q is not a binary label", raw)
}
