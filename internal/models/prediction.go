package models

import "strings"

// CropSeparator splits a class label into its crop and disease parts,
// e.g. "Tomato_EarlyBlight".
const CropSeparator = "_"

// UnknownCrop is reported for labels that carry no crop prefix.
const UnknownCrop = "Unknown"

// Prediction pairs a class label with the model's confidence for it.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Crop returns the crop part of the label (everything before the first
// separator), or UnknownCrop when the label has no separator.
func (p Prediction) Crop() string {
	idx := strings.Index(p.Label, CropSeparator)
	if idx < 0 {
		return UnknownCrop
	}
	return p.Label[:idx]
}

// DiseaseName returns the disease part of the label (everything after the
// first separator). Labels without a separator are returned unchanged.
func (p Prediction) DiseaseName() string {
	idx := strings.Index(p.Label, CropSeparator)
	if idx < 0 {
		return p.Label
	}
	return p.Label[idx+len(CropSeparator):]
}

// IsHealthy reports whether the label marks the plant as healthy.
func (p Prediction) IsHealthy() bool {
	return strings.EqualFold(p.DiseaseName(), "healthy")
}

// LabelSet is the ordered list of class labels, one per model output index.
// The order is fixed at training time and must never be resorted.
type LabelSet []string
