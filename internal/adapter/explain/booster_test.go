package explain

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
)

var testNames = []string{"domain_matches", "history_score", "semantic_score"}

func testBatch() ([][]float64, []float64) {
	rows := [][]float64{
		{2, 1.0, 0.91},
		{0, 0.375, 0.80},
		{1, 0.25, 0.55},
		{0, 0.0, 0.42},
		{3, 0.5, 0.77},
	}
	targets := make([]float64, len(rows))
	for i, r := range rows {
		targets[i] = 0.4*r[1] + 0.6*r[2]
	}
	return rows, targets
}

func TestAttributeAdditiveReconstruction(t *testing.T) {
	b := NewBooster(Config{}, zerolog.Nop())
	rows, targets := testBatch()

	contribs, baseline, err := b.Attribute(testNames, rows, targets)
	if err != nil {
		t.Fatal(err)
	}
	if len(contribs) != len(rows) {
		t.Fatalf("expected %d contribution maps, got %d", len(rows), len(contribs))
	}

	// The surrogate is fitted to overfit the batch, so the reconstruction
	// baseline + sum(contribs) must land on the target combined score.
	for i := range rows {
		sum := baseline
		for _, name := range testNames {
			v, ok := contribs[i][name]
			if !ok {
				t.Fatalf("row %d missing feature %q", i, name)
			}
			sum += v
		}
		if math.Abs(sum-targets[i]) > 1e-3 {
			t.Errorf("row %d: baseline+contribs = %v, target = %v", i, sum, targets[i])
		}
	}
}

func TestAttributeDeterministic(t *testing.T) {
	b := NewBooster(Config{}, zerolog.Nop())
	rows, targets := testBatch()

	first, baseline1, err := b.Attribute(testNames, rows, targets)
	if err != nil {
		t.Fatal(err)
	}
	second, baseline2, err := b.Attribute(testNames, rows, targets)
	if err != nil {
		t.Fatal(err)
	}

	if baseline1 != baseline2 {
		t.Errorf("baselines differ: %v vs %v", baseline1, baseline2)
	}
	for i := range first {
		for _, name := range testNames {
			if first[i][name] != second[i][name] {
				t.Errorf("row %d feature %s differs across runs", i, name)
			}
		}
	}
}

func TestAttributeEmptyBatch(t *testing.T) {
	b := NewBooster(Config{}, zerolog.Nop())
	contribs, baseline, err := b.Attribute(testNames, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(contribs) != 0 || baseline != 0 {
		t.Errorf("empty batch should yield empty result, got %v / %v", contribs, baseline)
	}
}

func TestAttributeSingleRow(t *testing.T) {
	b := NewBooster(Config{Trees: 10}, zerolog.Nop())
	rows := [][]float64{{1, 0.5, 0.7}}
	targets := []float64{0.62}

	contribs, baseline, err := b.Attribute(testNames, rows, targets)
	if err != nil {
		t.Fatal(err)
	}
	// One row means the base mean already equals the target; contributions
	// must be zero and the baseline carries everything.
	sum := baseline
	for _, v := range contribs[0] {
		sum += v
	}
	if math.Abs(sum-0.62) > 1e-9 {
		t.Errorf("single-row reconstruction = %v, want 0.62", sum)
	}
}

func TestAttributeDiscriminatesFeatures(t *testing.T) {
	b := NewBooster(Config{}, zerolog.Nop())

	// Targets depend on the semantic score only; history is constant. All
	// signal must land on the varying feature.
	rows := [][]float64{
		{0, 0.5, 0.9},
		{0, 0.5, 0.1},
		{0, 0.5, 0.6},
		{0, 0.5, 0.3},
	}
	targets := []float64{0.9, 0.1, 0.6, 0.3}

	contribs, _, err := b.Attribute(testNames, rows, targets)
	if err != nil {
		t.Fatal(err)
	}
	for i := range rows {
		if contribs[i]["history_score"] != 0 {
			t.Errorf("row %d: constant feature got contribution %v", i, contribs[i]["history_score"])
		}
	}
	if contribs[0]["semantic_score"] <= contribs[1]["semantic_score"] {
		t.Errorf("high-semantic row should out-contribute low-semantic row: %v vs %v",
			contribs[0]["semantic_score"], contribs[1]["semantic_score"])
	}
}
