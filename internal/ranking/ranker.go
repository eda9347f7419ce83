// Package ranking turns the engine's raw per-index predictions into a
// ranked top-K set.
package ranking

import (
	"sort"

	"leafscan/internal/models"
)

// Rank returns the k highest-confidence predictions ordered by confidence
// descending, ties broken by original index ascending so results are
// deterministic. The input is never mutated; len(result) is
// min(k, len(preds)) and k <= 0 yields an empty slice.
func Rank(preds []models.Prediction, k int) []models.Prediction {
	if k <= 0 || len(preds) == 0 {
		return []models.Prediction{}
	}

	indices := make([]int, len(preds))
	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(a, b int) bool {
		pa, pb := preds[indices[a]], preds[indices[b]]
		if pa.Confidence != pb.Confidence {
			return pa.Confidence > pb.Confidence
		}
		return indices[a] < indices[b]
	})

	if k > len(preds) {
		k = len(preds)
	}

	ranked := make([]models.Prediction, k)
	for i := 0; i < k; i++ {
		ranked[i] = preds[indices[i]]
	}
	return ranked
}
