package models

import "time"

// ScanRecord is one durable history entry for a completed classification.
// ID is zero until the record has been persisted.
type ScanRecord struct {
	ID             int64        `json:"id"`
	Crop           string       `json:"crop"`
	TopPredictions []Prediction `json:"topPredictions"`
	ImageRef       string       `json:"imageRef"`
	CapturedAt     time.Time    `json:"capturedAt"`
}

// TopLabel returns the highest-confidence label of the record, or an empty
// string for a record without predictions.
func (s *ScanRecord) TopLabel() string {
	if len(s.TopPredictions) == 0 {
		return ""
	}
	return s.TopPredictions[0].Label
}

// ScanStats contains aggregate statistics over the stored scan history.
type ScanStats struct {
	Total    int            `json:"total"`
	ByCrop   map[string]int `json:"byCrop"`
	ByLabel  map[string]int `json:"byLabel"`
	Healthy  int            `json:"healthy"`
	Diseased int            `json:"diseased"`
}
