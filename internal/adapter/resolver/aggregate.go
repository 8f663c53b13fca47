package resolver

import (
	"fmt"
	"sort"

	"teachmatch/internal/domain"
)

type assignmentKey struct {
	instructorID string
	courseID     string
	period       string
}

// Aggregation is the collapsed outcome of resolving a batch of raw rows:
// one increment per distinct (instructor, course, period) key, one
// biography note per distinct (instructor, course, period) mention, and the
// per-row outcomes for reporting.
type Aggregation struct {
	Increments []domain.AssignmentIncrement
	Notes      []domain.BiographyNote
	Outcomes   []domain.Resolution
	Resolved   int
	Unresolved int
}

// Aggregate resolves every raw row and collapses duplicates before any
// persistence, so N mentions of the same assignment on one document become
// a single increment of N rather than N writes. Unresolved rows are counted
// and reported, never errored.
func (r *Resolver) Aggregate(rows []domain.RawAssignment) *Aggregation {
	agg := &Aggregation{Outcomes: make([]domain.Resolution, 0, len(rows))}

	counts := make(map[assignmentKey]int)
	noteSeen := make(map[assignmentKey]domain.BiographyNote)
	var keyOrder []assignmentKey

	for _, raw := range rows {
		res := r.Resolve(raw)
		agg.Outcomes = append(agg.Outcomes, res)
		if !res.Resolved {
			agg.Unresolved++
			continue
		}
		agg.Resolved++

		// Roman and numeric spellings of the same period must land on one
		// key, or the distinct-period count drifts upward.
		period := PeriodFromText(raw.Period)
		key := assignmentKey{res.InstructorID, res.CourseID, period}
		if _, ok := counts[key]; !ok {
			keyOrder = append(keyOrder, key)
			noteSeen[key] = domain.BiographyNote{
				InstructorID: res.InstructorID,
				Note:         TeachingNote(raw.CourseName, period),
			}
		}
		counts[key]++
	}

	// Stable output order regardless of map iteration.
	sort.Slice(keyOrder, func(i, j int) bool {
		a, b := keyOrder[i], keyOrder[j]
		if a.instructorID != b.instructorID {
			return a.instructorID < b.instructorID
		}
		if a.courseID != b.courseID {
			return a.courseID < b.courseID
		}
		return a.period < b.period
	})

	for _, key := range keyOrder {
		agg.Increments = append(agg.Increments, domain.AssignmentIncrement{
			InstructorID: key.instructorID,
			CourseID:     key.courseID,
			Period:       key.period,
			Delta:        counts[key],
		})
		agg.Notes = append(agg.Notes, noteSeen[key])
	}

	return agg
}

// TeachingNote renders the human-readable biography line recorded when a
// resolved assignment is persisted. The store appends it only when the
// biography does not already contain it.
func TeachingNote(courseName, period string) string {
	return fmt.Sprintf("Dictó la asignatura: %s (Periodo: %s).", courseName, period)
}
