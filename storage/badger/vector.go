package badger

import (
	"math"
	"slices"
)

// cosineSimilarity computes the cosine similarity of two vectors.
// Returns ok=false when the dimensions differ or either vector has zero
// magnitude; mismatched vectors are skipped by the scans, never padded or
// truncated.
func cosineSimilarity(a, b []float32) (float32, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, false
	}

	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB))), true
}

// scored pairs an arbitrary record with its similarity score during a scan.
type scored[T any] struct {
	record T
	score  float32
}

// topScored sorts by score descending and truncates to limit.
func topScored[T any](results []scored[T], limit int) []scored[T] {
	slices.SortFunc(results, func(a, b scored[T]) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		return 0
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
