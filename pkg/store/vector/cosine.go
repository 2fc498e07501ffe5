package vector

import (
	"fmt"
	"math"
	"sort"
)

// Candidate is an id with its embedding, ranked by TopK when sqlite-vss is off.
type Candidate struct {
	ID        string
	Embedding []float64
}

// Match is a ranked search hit.
type Match struct {
	ID         string
	Similarity float64
}

// CosineSimilarity returns a value between -1 and 1, where 1 means identical.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}
	var dot, aMag, bMag float64
	for i := range a {
		dot += a[i] * b[i]
		aMag += a[i] * a[i]
		bMag += b[i] * b[i]
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}

// TopK ranks candidates by cosine similarity to query, most similar first.
// Candidates whose dimension differs from the query are skipped. Ties keep
// the candidates' original order.
func TopK(query []float64, candidates []Candidate, k int) []Match {
	if k <= 0 {
		k = 2
	}
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		sim, err := CosineSimilarity(query, c.Embedding)
		if err != nil {
			continue
		}
		matches = append(matches, Match{ID: c.ID, Similarity: sim})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
