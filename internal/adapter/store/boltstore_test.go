package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"teachmatch/internal/domain"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestInstructorCRUD(t *testing.T) {
	st := newTestStore(t)

	p := domain.InstructorProfile{
		ID:   "i1",
		Name: "Juan Carlos Pérez",
		Attributes: domain.AttributeSet{
			Languages: []string{"python"},
		},
		Biography:     "Software engineer.",
		EmbeddingHash: "abc",
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := st.PutInstructor(p); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetInstructor("i1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != p.Name || got.EmbeddingHash != "abc" || len(got.Attributes.Languages) != 1 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	if _, err := st.GetInstructor("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := st.ListInstructors()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 instructor, got %d", len(list))
	}

	if err := st.DeleteInstructor("i1"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.GetInstructor("i1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCourseCRUD(t *testing.T) {
	st := newTestStore(t)

	c := domain.CourseProfile{ID: "c1", Name: "Redes", Code: "ICSI-310", Cycle: 6}
	if err := st.PutCourse(c); err != nil {
		t.Fatal(err)
	}
	got, err := st.GetCourse("c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Code != "ICSI-310" || got.Cycle != 6 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if _, err := st.GetCourse("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyAssignmentsCreateAndIncrement(t *testing.T) {
	st := newTestStore(t)
	if err := st.PutInstructor(domain.InstructorProfile{ID: "i1", Name: "Ana Díaz"}); err != nil {
		t.Fatal(err)
	}

	incs := []domain.AssignmentIncrement{
		{InstructorID: "i1", CourseID: "c1", Period: "2024-10", Delta: 3},
	}
	notes := []domain.BiographyNote{
		{InstructorID: "i1", Note: "Dictó la asignatura: Redes (Periodo: 2024-10)."},
	}

	created, incremented, err := st.ApplyAssignments(incs, notes)
	if err != nil {
		t.Fatal(err)
	}
	if created != 1 || incremented != 0 {
		t.Errorf("first apply: created/incremented = %d/%d, want 1/0", created, incremented)
	}

	created, incremented, err = st.ApplyAssignments(incs, notes)
	if err != nil {
		t.Fatal(err)
	}
	if created != 0 || incremented != 1 {
		t.Errorf("second apply: created/incremented = %d/%d, want 0/1", created, incremented)
	}

	recs, err := st.GetAssignmentsByCourse("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one record per (instructor, course, period), got %d", len(recs))
	}
	if recs[0].Count != 6 {
		t.Errorf("count = %d, want 6", recs[0].Count)
	}
	if recs[0].InstructorID != "i1" || recs[0].Period != "2024-10" {
		t.Errorf("unexpected record %+v", recs[0])
	}
}

func TestApplyAssignmentsNoteIdempotent(t *testing.T) {
	st := newTestStore(t)
	if err := st.PutInstructor(domain.InstructorProfile{ID: "i1", Name: "Ana Díaz", Biography: "Engineer."}); err != nil {
		t.Fatal(err)
	}

	incs := []domain.AssignmentIncrement{{InstructorID: "i1", CourseID: "c1", Period: "2024-10", Delta: 1}}
	notes := []domain.BiographyNote{{InstructorID: "i1", Note: "Dictó la asignatura: Redes (Periodo: 2024-10)."}}

	for i := 0; i < 3; i++ {
		if _, _, err := st.ApplyAssignments(incs, notes); err != nil {
			t.Fatal(err)
		}
	}

	p, err := st.GetInstructor("i1")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(p.Biography, "Dictó la asignatura: Redes"); n != 1 {
		t.Errorf("note appended %d times, want 1: %q", n, p.Biography)
	}
	if !strings.HasPrefix(p.Biography, "Engineer.") {
		t.Errorf("existing biography lost: %q", p.Biography)
	}
}

func TestApplyAssignmentsSkipsNonPositiveDelta(t *testing.T) {
	st := newTestStore(t)

	created, incremented, err := st.ApplyAssignments([]domain.AssignmentIncrement{
		{InstructorID: "i1", CourseID: "c1", Period: "2024-10", Delta: 0},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if created != 0 || incremented != 0 {
		t.Errorf("zero delta should be a no-op, got %d/%d", created, incremented)
	}
}

func TestGetAssignmentsByInstructor(t *testing.T) {
	st := newTestStore(t)
	if err := st.PutInstructor(domain.InstructorProfile{ID: "i1", Name: "Ana"}); err != nil {
		t.Fatal(err)
	}

	incs := []domain.AssignmentIncrement{
		{InstructorID: "i1", CourseID: "c1", Period: "2023-10", Delta: 1},
		{InstructorID: "i1", CourseID: "c2", Period: "2023-20", Delta: 1},
		{InstructorID: "i2", CourseID: "c1", Period: "2023-10", Delta: 1},
	}
	if _, _, err := st.ApplyAssignments(incs, nil); err != nil {
		t.Fatal(err)
	}

	recs, err := st.GetAssignmentsByInstructor("i1")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 records for i1, got %d", len(recs))
	}
}
