package sqlite

import (
	"fmt"
	"strconv"
	"strings"

	"leafscan/internal/models"
)

// Encoding for the top-K prediction list inside one scan row:
// "label:confidence" entries joined with ";". Confidences use the shortest
// exact float representation so a decode reproduces the appended values
// bit-for-bit.
const (
	pairSeparator  = ":"
	entrySeparator = ";"
)

// encodePredictions serializes an ordered prediction list. Labels that
// contain a delimiter cannot round-trip and are rejected.
func encodePredictions(preds []models.Prediction) (string, error) {
	parts := make([]string, len(preds))
	for i, p := range preds {
		if strings.ContainsAny(p.Label, pairSeparator+entrySeparator) {
			return "", fmt.Errorf("label %q contains a reserved delimiter", p.Label)
		}
		parts[i] = p.Label + pairSeparator + strconv.FormatFloat(p.Confidence, 'f', -1, 64)
	}
	return strings.Join(parts, entrySeparator), nil
}

// decodePredictions restores the exact label/confidence pairs and their
// order from an encoded row value.
func decodePredictions(encoded string) ([]models.Prediction, error) {
	if encoded == "" {
		return nil, fmt.Errorf("empty prediction list")
	}

	entries := strings.Split(encoded, entrySeparator)
	preds := make([]models.Prediction, len(entries))
	for i, entry := range entries {
		idx := strings.LastIndex(entry, pairSeparator)
		if idx < 0 {
			return nil, fmt.Errorf("malformed prediction entry %q", entry)
		}
		confidence, err := strconv.ParseFloat(entry[idx+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed confidence in entry %q: %w", entry, err)
		}
		preds[i] = models.Prediction{Label: entry[:idx], Confidence: confidence}
	}
	return preds, nil
}
