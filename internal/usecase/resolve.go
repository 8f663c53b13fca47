package usecase

import (
	"fmt"

	"github.com/rs/zerolog"

	"teachmatch/internal/adapter/resolver"
	"teachmatch/internal/domain"
	"teachmatch/internal/port"
)

// ResolveUseCase turns noisy schedule rows into assignment history. Each
// batch works against a fresh catalog snapshot so mid-batch catalog edits
// from other processes cannot produce mixed matches.
type ResolveUseCase struct {
	store      port.CatalogStore
	embedder   port.Embedder
	thresholds resolver.Thresholds
	log        zerolog.Logger
}

func NewResolveUseCase(st port.CatalogStore, embedder port.Embedder, th resolver.Thresholds, log zerolog.Logger) *ResolveUseCase {
	return &ResolveUseCase{
		store:      st,
		embedder:   embedder,
		thresholds: th,
		log:        log.With().Str("component", "resolve").Logger(),
	}
}

// ResolveAndRecord matches every raw row against the catalog, collapses
// duplicates, persists the aggregated increments and biography notes in one
// transaction, and invalidates the recommendation cache of every course
// whose history changed. Unresolved rows are reported, not errored; a row
// that can't be matched must never poison the batch.
func (u *ResolveUseCase) ResolveAndRecord(rows []domain.RawAssignment) (*domain.ResolutionReport, error) {
	if len(rows) == 0 {
		return &domain.ResolutionReport{Outcomes: []domain.Resolution{}}, nil
	}

	instructors, err := u.store.ListInstructors()
	if err != nil {
		return nil, fmt.Errorf("load instructor catalog: %w", err)
	}
	courses, err := u.store.ListCourses()
	if err != nil {
		return nil, fmt.Errorf("load course catalog: %w", err)
	}

	r := resolver.New(instructors, courses, u.embedder, u.thresholds, u.log)
	agg := r.Aggregate(rows)

	created, incremented := 0, 0
	if len(agg.Increments) > 0 {
		created, incremented, err = u.store.ApplyAssignments(agg.Increments, agg.Notes)
		if err != nil {
			return nil, fmt.Errorf("record assignments: %w", err)
		}

		// History changed, so cached rankings for the touched courses are
		// no longer trustworthy.
		seen := make(map[string]struct{})
		for _, inc := range agg.Increments {
			if _, ok := seen[inc.CourseID]; ok {
				continue
			}
			seen[inc.CourseID] = struct{}{}
			if _, err := u.store.ClearRecommendations(inc.CourseID); err != nil {
				u.log.Warn().Err(err).Str("course_id", inc.CourseID).Msg("failed to invalidate recommendation cache")
			}
		}
	}

	u.log.Info().
		Int("rows", len(rows)).
		Int("resolved", agg.Resolved).
		Int("unresolved", agg.Unresolved).
		Int("created", created).
		Int("incremented", incremented).
		Msg("schedule batch recorded")

	return &domain.ResolutionReport{
		Resolved:           agg.Resolved,
		Unresolved:         agg.Unresolved,
		RecordsCreated:     created,
		RecordsIncremented: incremented,
		Outcomes:           agg.Outcomes,
	}, nil
}
