package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"teachmatch/config"
	"teachmatch/internal/adapter/fs"
	"teachmatch/internal/adapter/resolver"
	"teachmatch/internal/domain"
	"teachmatch/internal/port"
)

// ProgressFunc reports ingestion progress to the caller.
type ProgressFunc func(processed, total int, currentFile string)

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	DocumentsFound     int
	ProfilesUpserted   int
	CoursesUpserted    int
	SchedulesProcessed int
	RowsResolved       int
	RowsUnresolved     int
	Errors             []string
}

// IngestUseCase walks a document tree, extracts CVs, syllabi and schedules,
// and feeds the catalog. Extraction runs concurrently; catalog writes go
// through the store's transactions, so a failing document never corrupts
// state, it only lands in the per-document error list.
type IngestUseCase struct {
	store     port.CatalogStore
	walker    *fs.Walker
	profiles  port.ProfileExtractor
	schedules port.ScheduleExtractor
	tagger    port.Tagger
	resolve   *ResolveUseCase
	cfg       config.IngestConfig
	log       zerolog.Logger
}

func NewIngestUseCase(
	st port.CatalogStore,
	walker *fs.Walker,
	profiles port.ProfileExtractor,
	schedules port.ScheduleExtractor,
	tagger port.Tagger,
	resolve *ResolveUseCase,
	cfg config.IngestConfig,
	log zerolog.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		store:     st,
		walker:    walker,
		profiles:  profiles,
		schedules: schedules,
		tagger:    tagger,
		resolve:   resolve,
		cfg:       cfg,
		log:       log.With().Str("component", "ingest").Logger(),
	}
}

// Ingest processes every document under root. Documents fail independently:
// an extraction error is recorded and the batch continues. Schedules run
// after profiles so that same-batch CVs and syllabi are already in the
// catalog when their schedule rows are resolved.
func (u *IngestUseCase) Ingest(ctx context.Context, root string, progress ProgressFunc) (*IngestResult, error) {
	docs, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	result := &IngestResult{DocumentsFound: len(docs)}
	if len(docs) == 0 {
		return result, nil
	}

	var profiles, schedules []fs.Document
	for _, d := range docs {
		if d.Kind == fs.KindSchedule {
			schedules = append(schedules, d)
		} else {
			profiles = append(profiles, d)
		}
	}

	var mu sync.Mutex
	processed := 0
	step := func(path string) {
		mu.Lock()
		processed++
		n := processed
		mu.Unlock()
		if progress != nil {
			progress(n, len(docs), path)
		}
	}
	fail := func(path string, err error) {
		u.log.Warn().Err(err).Str("path", path).Msg("document failed")
		mu.Lock()
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	workers := u.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, doc := range profiles {
		doc := doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := u.ingestProfile(gctx, doc, result, &mu); err != nil {
				fail(doc.Path, err)
			}
			step(doc.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	// Schedules write shared history and the resolver wants the complete
	// catalog snapshot, so they run sequentially after the profile pass.
	for _, doc := range schedules {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := u.ingestSchedule(ctx, doc, result, &mu); err != nil {
			fail(doc.Path, err)
		} else {
			mu.Lock()
			result.SchedulesProcessed++
			mu.Unlock()
		}
		step(doc.Path)
	}

	u.log.Info().
		Int("documents", result.DocumentsFound).
		Int("profiles", result.ProfilesUpserted).
		Int("courses", result.CoursesUpserted).
		Int("schedules", result.SchedulesProcessed).
		Int("errors", len(result.Errors)).
		Msg("ingestion finished")

	return result, nil
}

func (u *IngestUseCase) ingestProfile(ctx context.Context, doc fs.Document, result *IngestResult, mu *sync.Mutex) error {
	raw, err := fs.ReadFile(doc.Path)
	if err != nil {
		return err
	}

	var extracted domain.ExtractedProfile
	err = u.withRetry(ctx, func() error {
		var exErr error
		extracted, exErr = u.profiles.ExtractProfile(raw)
		return exErr
	})
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if extracted.Name == "" {
		return fmt.Errorf("extract: no name found")
	}
	if len(extracted.Attributes.Domains)+len(extracted.Attributes.Topics) == 0 && u.tagger != nil {
		extracted.Attributes = u.tagger.Tag(extracted.FreeText)
	}

	switch doc.Kind {
	case fs.KindSyllabus:
		if err := u.upsertCourse(extracted); err != nil {
			return err
		}
		mu.Lock()
		result.CoursesUpserted++
		mu.Unlock()
	default:
		if err := u.upsertInstructor(extracted); err != nil {
			return err
		}
		mu.Lock()
		result.ProfilesUpserted++
		mu.Unlock()
	}
	return nil
}

// upsertInstructor matches by normalized name so re-ingesting an updated CV
// refreshes the existing profile instead of duplicating it. The embedding
// hash is cleared on every update; the next recommendation recomputes the
// vector. A changed instructor can shift any course's ranking, so every
// cached list is dropped.
func (u *IngestUseCase) upsertInstructor(e domain.ExtractedProfile) error {
	existing, err := u.store.ListInstructors()
	if err != nil {
		return err
	}

	now := time.Now()
	p := domain.InstructorProfile{
		ID:         uuid.NewString(),
		Name:       e.Name,
		Email:      e.Email,
		Degree:     e.Degree,
		Attributes: e.Attributes,
		Biography:  e.FreeText,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	target := resolver.NormalizeInstructorName(e.Name)
	for _, prev := range existing {
		if resolver.NormalizeInstructorName(prev.Name) == target {
			p.ID = prev.ID
			p.CreatedAt = prev.CreatedAt
			if e.Email == "" {
				p.Email = prev.Email
			}
			if e.Degree == "" {
				p.Degree = prev.Degree
			}
			break
		}
	}

	if err := u.store.PutInstructor(p); err != nil {
		return err
	}
	if _, err := u.store.ClearRecommendations(""); err != nil {
		u.log.Warn().Err(err).Msg("failed to invalidate recommendation cache")
	}
	return nil
}

// upsertCourse matches by normalized code first, then normalized name. Only
// the updated course's cached list is invalidated.
func (u *IngestUseCase) upsertCourse(e domain.ExtractedProfile) error {
	existing, err := u.store.ListCourses()
	if err != nil {
		return err
	}

	now := time.Now()
	c := domain.CourseProfile{
		ID:          uuid.NewString(),
		Name:        e.Name,
		Code:        e.Code,
		Cycle:       e.Cycle,
		Attributes:  e.Attributes,
		Description: e.FreeText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	code := resolver.NormalizeCourseCode(e.Code)
	name := resolver.NormalizeCourseName(e.Name)
	for _, prev := range existing {
		sameCode := code != "" && resolver.NormalizeCourseCode(prev.Code) == code
		sameName := resolver.NormalizeCourseName(prev.Name) == name
		if sameCode || sameName {
			c.ID = prev.ID
			c.CreatedAt = prev.CreatedAt
			if e.Code == "" {
				c.Code = prev.Code
			}
			break
		}
	}

	if err := u.store.PutCourse(c); err != nil {
		return err
	}
	if _, err := u.store.ClearRecommendations(c.ID); err != nil {
		u.log.Warn().Err(err).Str("course_id", c.ID).Msg("failed to invalidate recommendation cache")
	}
	return nil
}

func (u *IngestUseCase) ingestSchedule(ctx context.Context, doc fs.Document, result *IngestResult, mu *sync.Mutex) error {
	raw, err := fs.ReadFile(doc.Path)
	if err != nil {
		return err
	}

	var rows []domain.RawAssignment
	err = u.withRetry(ctx, func() error {
		var exErr error
		rows, exErr = u.schedules.ExtractSchedule(raw)
		return exErr
	})
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	// Rows missing a period fall back to the filename, then the generic
	// historical bucket.
	period := resolver.PeriodFromFilename(filepath.Base(doc.Path))
	for i := range rows {
		if strings.TrimSpace(rows[i].Period) == "" {
			if period != "" {
				rows[i].Period = period
			} else {
				rows[i].Period = resolver.FallbackPeriod
			}
		}
	}

	report, err := u.resolve.ResolveAndRecord(rows)
	if err != nil {
		return err
	}
	mu.Lock()
	result.RowsResolved += report.Resolved
	result.RowsUnresolved += report.Unresolved
	mu.Unlock()
	return nil
}

// withRetry retries transient extraction failures with exponential backoff
// and jitter. Non-transient errors return immediately.
func (u *IngestUseCase) withRetry(ctx context.Context, fn func() error) error {
	maxAttempts := u.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	base := time.Duration(u.cfg.BackoffBaseMS) * time.Millisecond
	if base <= 0 {
		base = time.Second
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !domain.Transient(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		backoff := base << (attempt - 1)
		backoff += time.Duration(rand.Int63n(int64(backoff)/2 + 1))
		u.log.Debug().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("transient extraction failure, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
