package usecase

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"teachmatch/internal/adapter/explain"
	"teachmatch/internal/adapter/resolver"
	"teachmatch/internal/adapter/store"
	"teachmatch/internal/domain"
)

// markerEmbedder maps texts to fixed vectors by substring marker, so tests
// control cosine similarities exactly.
type markerEmbedder struct {
	markers []string
	vectors [][]float32
	calls   int
}

func (e *markerEmbedder) Embed(texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{0, 0}
		for j, m := range e.markers {
			if strings.Contains(t, m) {
				out[i] = e.vectors[j]
				break
			}
		}
	}
	return out, nil
}

func (e *markerEmbedder) Dimension() int    { return 2 }
func (e *markerEmbedder) ModelName() string { return "fixture" }

func newTestStoreUC(t *testing.T) *store.BoltStore {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// seedBlendScenario sets up course c1 with veteran-track instructor t1 (3
// distinct periods of history, semantic 0.8) and newcomer t2 (no history,
// orthogonal profile).
func seedBlendScenario(t *testing.T, st *store.BoltStore) *markerEmbedder {
	t.Helper()

	if err := st.PutCourse(domain.CourseProfile{ID: "c1", Name: "Redes", Description: "redes y protocolos"}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutInstructor(domain.InstructorProfile{ID: "t1", Name: "Tomás Vega", Biography: "network teaching"}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutInstructor(domain.InstructorProfile{ID: "t2", Name: "Ulises Soto", Biography: "databases only"}); err != nil {
		t.Fatal(err)
	}

	incs := []domain.AssignmentIncrement{
		{InstructorID: "t1", CourseID: "c1", Period: "2022-10", Delta: 1},
		{InstructorID: "t1", CourseID: "c1", Period: "2022-20", Delta: 1},
		{InstructorID: "t1", CourseID: "c1", Period: "2023-10", Delta: 1},
	}
	if _, _, err := st.ApplyAssignments(incs, nil); err != nil {
		t.Fatal(err)
	}

	// cos(course, t1) = 0.8 exactly; cos(course, t2) = 0.
	return &markerEmbedder{
		markers: []string{"Course: Redes", "network teaching", "databases only"},
		vectors: [][]float32{{1, 0}, {0.8, 0.6}, {0, 1}},
	}
}

func newRecommendUC(st *store.BoltStore, embedder *markerEmbedder) *RecommendUseCase {
	log := zerolog.Nop()
	attributor := explain.NewBooster(explain.Config{}, log)
	if embedder == nil {
		return NewRecommendUseCase(st, store.NewEmbeddingCache(st, log), nil, attributor, log)
	}
	return NewRecommendUseCase(st, store.NewEmbeddingCache(st, log), embedder, attributor, log)
}

func TestRecommendBlendScenario(t *testing.T) {
	st := newTestStoreUC(t)
	embedder := seedBlendScenario(t, st)
	uc := newRecommendUC(st, embedder)

	set, err := uc.Recommend("c1", RecommendOptions{TopK: 2, UseCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if set.FromCache {
		t.Error("first call must compute, not hit the cache")
	}
	if len(set.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(set.Items))
	}

	top := set.Items[0]
	if top.InstructorID != "t1" || top.Rank != 1 {
		t.Fatalf("expected t1 at rank 1, got %+v", top)
	}
	// 3 periods at threshold 8 -> 0.375; blend 0.4*0.375 + 0.6*0.8 = 0.63,
	// percentage-scaled to 63.00.
	if top.HistoricalScore != 37.5 {
		t.Errorf("historical = %v, want 37.5", top.HistoricalScore)
	}
	if top.SemanticScore != 80.0 {
		t.Errorf("semantic = %v, want 80.0", top.SemanticScore)
	}
	if top.CombinedScore != 63.0 {
		t.Errorf("combined = %v, want 63.0", top.CombinedScore)
	}
	if top.InstructorName != "Tomás Vega" {
		t.Errorf("name = %q", top.InstructorName)
	}

	for i := 1; i < len(set.Items); i++ {
		if set.Items[i].CombinedScore > set.Items[i-1].CombinedScore {
			t.Error("ranked list must be non-increasing")
		}
	}
}

func TestRecommendAttributionReconstructs(t *testing.T) {
	st := newTestStoreUC(t)
	embedder := seedBlendScenario(t, st)
	uc := newRecommendUC(st, embedder)

	set, err := uc.Recommend("c1", RecommendOptions{TopK: 2, UseCache: false})
	if err != nil {
		t.Fatal(err)
	}

	for _, item := range set.Items {
		sum := item.Baseline
		for _, v := range item.Attribution {
			sum += v
		}
		// Scores are rounded for the API, attribution is not; allow the
		// rounding slack on top of the surrogate tolerance.
		if math.Abs(sum-item.CombinedScore) > 0.2 {
			t.Errorf("%s: baseline+attribution = %v, combined = %v", item.InstructorID, sum, item.CombinedScore)
		}
	}
}

func TestRecommendSecondCallFromCache(t *testing.T) {
	st := newTestStoreUC(t)
	embedder := seedBlendScenario(t, st)
	uc := newRecommendUC(st, embedder)

	first, err := uc.Recommend("c1", RecommendOptions{TopK: 2, UseCache: true, MaxCacheAge: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := embedder.calls

	second, err := uc.Recommend("c1", RecommendOptions{TopK: 2, UseCache: true, MaxCacheAge: time.Hour})
	if err != nil {
		t.Fatal(err)
	}

	if !second.FromCache {
		t.Fatal("second call with unchanged data must be served from cache")
	}
	if embedder.calls != callsAfterFirst {
		t.Error("cache hit must not touch the embedding backend")
	}
	if len(second.Items) != len(first.Items) {
		t.Fatalf("cached list length differs: %d vs %d", len(second.Items), len(first.Items))
	}
	for i := range first.Items {
		f, s := first.Items[i], second.Items[i]
		if f.InstructorID != s.InstructorID || f.CombinedScore != s.CombinedScore || f.Rank != s.Rank {
			t.Errorf("cached entry %d differs: %+v vs %+v", i, f, s)
		}
		if !s.FromCache {
			t.Errorf("cached entry %d not flagged from_cache", i)
		}
	}
}

func TestRecommendEmbeddingCacheReuse(t *testing.T) {
	st := newTestStoreUC(t)
	embedder := seedBlendScenario(t, st)
	uc := newRecommendUC(st, embedder)

	if _, err := uc.Recommend("c1", RecommendOptions{TopK: 2, UseCache: false}); err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := embedder.calls

	// Cache disabled forces recomputation of the ranking, but unchanged
	// profile text must still reuse cached embeddings.
	if _, err := uc.Recommend("c1", RecommendOptions{TopK: 2, UseCache: false}); err != nil {
		t.Fatal(err)
	}
	if embedder.calls != callsAfterFirst {
		t.Errorf("unchanged text re-embedded: %d extra calls", embedder.calls-callsAfterFirst)
	}
}

func TestRecommendUnknownCourse(t *testing.T) {
	st := newTestStoreUC(t)
	uc := newRecommendUC(st, &markerEmbedder{})

	set, err := uc.Recommend("ghost", RecommendOptions{TopK: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Items) != 0 {
		t.Errorf("unknown course must yield an empty set, got %d items", len(set.Items))
	}
}

func TestRecommendEmbedderUnavailable(t *testing.T) {
	st := newTestStoreUC(t)
	seedBlendScenario(t, st)
	uc := newRecommendUC(st, nil)

	_, err := uc.Recommend("c1", RecommendOptions{TopK: 2})
	if !errors.Is(err, domain.ErrEmbedderUnavailable) {
		t.Errorf("expected ErrEmbedderUnavailable, got %v", err)
	}
}

func TestRecommendCacheInvalidatedByNewHistory(t *testing.T) {
	st := newTestStoreUC(t)
	embedder := seedBlendScenario(t, st)
	uc := newRecommendUC(st, embedder)

	first, err := uc.Recommend("c1", RecommendOptions{TopK: 2, UseCache: true, MaxCacheAge: time.Hour})
	if err != nil {
		t.Fatal(err)
	}

	// Recording one more period for t1 must drop c1's cached list and
	// change the next computed ranking.
	resolve := NewResolveUseCase(st, nil, resolver.DefaultThresholds(), zerolog.Nop())
	report, err := resolve.ResolveAndRecord([]domain.RawAssignment{{
		InstructorName: "TOMAS VEGA",
		CourseName:     "REDES",
		Period:         "2023-20",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if report.Resolved != 1 {
		t.Fatalf("fixture row did not resolve: %+v", report)
	}

	second, err := uc.Recommend("c1", RecommendOptions{TopK: 2, UseCache: true, MaxCacheAge: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if second.FromCache {
		t.Fatal("cache must be invalidated by new history")
	}
	// 4 periods now: 0.4*0.5 + 0.6*0.8 = 0.68.
	if got := second.Items[0].CombinedScore; got != 68.0 {
		t.Errorf("combined after new history = %v, want 68.0", got)
	}
	if first.Items[0].CombinedScore != 63.0 {
		t.Errorf("first combined = %v, want 63.0", first.Items[0].CombinedScore)
	}
}

func TestRecommendEvidenceIntersection(t *testing.T) {
	st := newTestStoreUC(t)

	if err := st.PutCourse(domain.CourseProfile{
		ID:   "c1",
		Name: "Ciencia de Datos",
		Attributes: domain.AttributeSet{
			Languages: []string{"python", "r"},
			Tools:     []string{"pytorch"},
		},
		Description: "course text",
	}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutInstructor(domain.InstructorProfile{
		ID:   "t1",
		Name: "Eva",
		Attributes: domain.AttributeSet{
			Languages: []string{"python", "java"},
			Tools:     []string{"docker"},
		},
		Biography: "instructor text",
	}); err != nil {
		t.Fatal(err)
	}

	embedder := &markerEmbedder{
		markers: []string{"course text", "instructor text"},
		vectors: [][]float32{{1, 0}, {1, 0}},
	}
	uc := newRecommendUC(st, embedder)

	set, err := uc.Recommend("c1", RecommendOptions{TopK: 1, UseCache: false})
	if err != nil {
		t.Fatal(err)
	}
	ev := set.Items[0].Evidence
	if len(ev.Languages) != 1 || ev.Languages[0] != "python" {
		t.Errorf("language evidence = %v, want [python]", ev.Languages)
	}
	if len(ev.Tools) != 0 {
		t.Errorf("tool evidence = %v, want empty", ev.Tools)
	}
}
