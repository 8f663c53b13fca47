package scorer

import (
	"math"
	"testing"
)

func TestHistoryScoreBounds(t *testing.T) {
	tests := []struct {
		count     int
		threshold int
		want      float64
	}{
		{0, 8, 0.0},
		{-3, 8, 0.0},
		{8, 8, 1.0},
		{20, 8, 1.0},
		{3, 8, 0.375},
		{4, 8, 0.5},
		{1, 4, 0.25},
	}
	for _, tt := range tests {
		got := HistoryScore(tt.count, tt.threshold)
		if got != tt.want {
			t.Errorf("HistoryScore(%d, %d) = %v, want %v", tt.count, tt.threshold, got, tt.want)
		}
	}
}

func TestHistoryScoreDefaultThreshold(t *testing.T) {
	if got := HistoryScore(4, 0); got != 0.5 {
		t.Errorf("expected default threshold %d to apply, got %v", DefaultVeteranThreshold, got)
	}
}

func TestCosine(t *testing.T) {
	a := []float32{1, 0, 0}
	if got := Cosine(a, []float32{1, 0, 0}); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical vectors: got %v, want 1.0", got)
	}
	if got := Cosine(a, []float32{0, 1, 0}); got != 0 {
		t.Errorf("orthogonal vectors: got %v, want 0", got)
	}
	if got := Cosine(a, []float32{0, 0, 0}); got != 0 {
		t.Errorf("zero vector: got %v, want 0", got)
	}
	if got := Cosine(a, []float32{1, 0}); got != 0 {
		t.Errorf("mismatched lengths: got %v, want 0", got)
	}
}

func TestFlattenSingletonWrapped(t *testing.T) {
	// A [1][3] vector stored row-wise comes in as length 3*2 when two rows
	// were concatenated; Flatten keeps the first row.
	wrapped := []float32{1, 2, 3, 1, 2, 3}
	got := Flatten(wrapped, 3)
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("Flatten(%v, 3) = %v", wrapped, got)
	}

	flat := []float32{1, 2, 3}
	if out := Flatten(flat, 3); len(out) != 3 {
		t.Errorf("flat vector should pass through, got %v", out)
	}
}

func TestCosineAllIndexAligned(t *testing.T) {
	course := []float32{1, 0}
	scores := CosineAll(course, [][]float32{
		{1, 0},
		{0, 1},
		{1, 1},
	})
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
	if math.Abs(scores[0]-1.0) > 1e-9 || scores[1] != 0 {
		t.Errorf("scores not index-aligned: %v", scores)
	}
}

func TestCombineBlend(t *testing.T) {
	// Three periods of history at threshold 8 plus semantic 0.80 blends to
	// exactly 0.63 with the default weights.
	cands := []Candidate{{
		InstructorID: "t1",
		History:      HistoryScore(3, 8),
		Semantic:     0.80,
	}}
	Combine(cands, DefaultHistoryWeight, DefaultSemanticWeight)

	if cands[0].History != 0.375 {
		t.Errorf("history score = %v, want 0.375", cands[0].History)
	}
	if math.Abs(cands[0].Combined-0.63) > 1e-9 {
		t.Errorf("combined = %v, want 0.63", cands[0].Combined)
	}
}

func TestRankDescendingWithTieBreak(t *testing.T) {
	cands := []Candidate{
		{InstructorID: "b", Combined: 0.5},
		{InstructorID: "a", Combined: 0.5},
		{InstructorID: "c", Combined: 0.9},
	}
	Rank(cands)

	want := []string{"c", "a", "b"}
	for i, id := range want {
		if cands[i].InstructorID != id {
			t.Fatalf("rank %d = %s, want %s (full: %v)", i, cands[i].InstructorID, id, cands)
		}
	}
	for i := 1; i < len(cands); i++ {
		if cands[i].Combined > cands[i-1].Combined {
			t.Errorf("scores increase at rank %d", i)
		}
	}
}

func TestTopK(t *testing.T) {
	cands := []Candidate{{InstructorID: "a"}, {InstructorID: "b"}, {InstructorID: "c"}}
	if got := TopK(cands, 2); len(got) != 2 {
		t.Errorf("TopK(3, 2) len = %d", len(got))
	}
	if got := TopK(cands, 10); len(got) != 3 {
		t.Errorf("TopK(3, 10) len = %d", len(got))
	}
	if got := TopK(cands, 0); len(got) != 3 {
		t.Errorf("TopK(3, 0) should return all, len = %d", len(got))
	}
}
