package ml

// Evaluate scores a fitted classifier on an already-transformed evaluation
// partition, producing accuracy, precision, recall and confusion counts with
// malignant (1) as the positive class.
func Evaluate(model *LogisticRegression, X [][]float64, Y []int) Metrics {
	var m Metrics
	for i, row := range X {
		predicted := 0
		if model.Proba(row) >= 0.5 {
			predicted = 1
		}
		switch {
		case predicted == 1 && Y[i] == 1:
			m.TruePositives++
		case predicted == 1 && Y[i] == 0:
			m.FalsePositives++
		case predicted == 0 && Y[i] == 1:
			m.FalseNegatives++
		default:
			m.TrueNegatives++
		}
	}

	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		m.Accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}
	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	return m
}
