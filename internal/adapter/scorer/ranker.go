package scorer

import "sort"

// Candidate is one instructor's component scores before blending.
type Candidate struct {
	InstructorID string
	History      float64
	Semantic     float64
	Combined     float64
}

// DefaultHistoryWeight and DefaultSemanticWeight balance prior teaching
// experience against semantic fit. Callers may supply any weights; they are
// not required to sum to 1.
const (
	DefaultHistoryWeight  = 0.4
	DefaultSemanticWeight = 0.6
)

// Combine blends each candidate's component scores in place.
func Combine(cands []Candidate, historyWeight, semanticWeight float64) {
	for i := range cands {
		cands[i].Combined = historyWeight*cands[i].History + semanticWeight*cands[i].Semantic
	}
}

// Rank sorts candidates by descending combined score. Ties break by
// ascending instructor ID so repeated runs over the same data produce the
// same ordering.
func Rank(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Combined != cands[j].Combined {
			return cands[i].Combined > cands[j].Combined
		}
		return cands[i].InstructorID < cands[j].InstructorID
	})
}

// TopK truncates a ranked slice to at most k entries.
func TopK(cands []Candidate, k int) []Candidate {
	if k > 0 && len(cands) > k {
		return cands[:k]
	}
	return cands
}
