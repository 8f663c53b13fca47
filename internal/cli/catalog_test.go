package cli

import (
	"path/filepath"
	"testing"
	"time"

	"teachmatch/internal/adapter/store"
	"teachmatch/internal/domain"
)

func newTestCatalogStore(t *testing.T) *store.BoltStore {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAddInstructorInvalidatesRankedLists(t *testing.T) {
	st := newTestCatalogStore(t)

	entries := []domain.CachedRecommendation{
		{InstructorID: "i1", CombinedScore: 0.9},
		{InstructorID: "i2", CombinedScore: 0.7},
	}
	if err := st.ReplaceRecommendations("c1", entries, store.AlgorithmVersion); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	p := domain.InstructorProfile{
		ID:        "i-new",
		Name:      "Laura Quispe",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := addInstructorProfile(st, p); err != nil {
		t.Fatal(err)
	}

	// A new candidate can appear in any ranked list, so all of them go.
	got, err := st.GetRecommendations("c1", time.Hour, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("cached list must be dropped after adding an instructor, got %d entries", len(got))
	}

	if _, err := st.GetInstructor("i-new"); err != nil {
		t.Errorf("instructor must be persisted: %v", err)
	}
}
