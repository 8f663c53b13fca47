package usecase

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"teachmatch/internal/adapter/profiletext"
	"teachmatch/internal/adapter/scorer"
	"teachmatch/internal/adapter/store"
	"teachmatch/internal/domain"
	"teachmatch/internal/port"
)

// featureNames is the fixed feature ordering fed to the attributor: the
// five evidence-set sizes plus the two component scores.
var featureNames = []string{
	"domain_matches",
	"language_matches",
	"tool_matches",
	"methodology_matches",
	"topic_matches",
	"history_score",
	"semantic_score",
}

// RecommendOptions parameterizes one ranking request. Weights need not sum
// to 1; zero values fall back to defaults.
type RecommendOptions struct {
	TopK             int
	HistoryWeight    float64
	SemanticWeight   float64
	VeteranThreshold int
	UseCache         bool
	MaxCacheAge      time.Duration
}

func (o *RecommendOptions) fillDefaults() {
	if o.TopK <= 0 {
		o.TopK = 20
	}
	if o.HistoryWeight == 0 && o.SemanticWeight == 0 {
		o.HistoryWeight = scorer.DefaultHistoryWeight
		o.SemanticWeight = scorer.DefaultSemanticWeight
	}
	if o.VeteranThreshold <= 0 {
		o.VeteranThreshold = scorer.DefaultVeteranThreshold
	}
	if o.MaxCacheAge <= 0 {
		o.MaxCacheAge = 7 * 24 * time.Hour
	}
}

// RecommendUseCase ranks instructors for a course by blending historical
// experience with semantic fit, explains the ranking, and keeps the ranked
// list cached. Safe for concurrent use: computation is serialized so two
// callers asking for the same cold course don't both pay for embeddings
// (concurrent recomputation would still be correct, only wasted work).
type RecommendUseCase struct {
	store      port.CatalogStore
	embCache   *store.EmbeddingCache
	embedder   port.Embedder
	attributor port.Attributor
	log        zerolog.Logger

	computeMu sync.Mutex
}

func NewRecommendUseCase(
	st port.CatalogStore,
	embCache *store.EmbeddingCache,
	embedder port.Embedder,
	attributor port.Attributor,
	log zerolog.Logger,
) *RecommendUseCase {
	return &RecommendUseCase{
		store:      st,
		embCache:   embCache,
		embedder:   embedder,
		attributor: attributor,
		log:        log.With().Str("component", "recommend").Logger(),
	}
}

// Recommend returns the ranked list for a course. An unknown course yields
// an empty set and no error. An unavailable embedding backend fails the
// whole request; no partial list is returned. A cache write failure after a
// successful computation returns the computed set together with an error
// wrapping domain.ErrCacheWrite, so the failure is never silently
// swallowed.
func (u *RecommendUseCase) Recommend(courseID string, opts RecommendOptions) (*domain.RecommendationSet, error) {
	opts.fillDefaults()

	if opts.UseCache {
		cached, err := u.store.GetRecommendations(courseID, opts.MaxCacheAge, opts.TopK)
		if err != nil {
			return nil, fmt.Errorf("cache read: %w", err)
		}
		if len(cached) > 0 {
			return u.fromCache(courseID, cached, opts.TopK), nil
		}
	}

	course, err := u.store.GetCourse(courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.RecommendationSet{CourseID: courseID, Items: []domain.Recommendation{}}, nil
		}
		return nil, err
	}

	if u.embedder == nil {
		return nil, domain.ErrEmbedderUnavailable
	}

	u.computeMu.Lock()
	defer u.computeMu.Unlock()

	return u.compute(course, opts)
}

func (u *RecommendUseCase) compute(course domain.CourseProfile, opts RecommendOptions) (*domain.RecommendationSet, error) {
	started := time.Now()

	assignments, err := u.store.GetAssignmentsByCourse(course.ID)
	if err != nil {
		return nil, fmt.Errorf("load assignment history: %w", err)
	}
	// One record per (instructor, course, period), so counting records
	// counts distinct periods taught.
	periodCounts := make(map[string]int)
	for _, rec := range assignments {
		periodCounts[rec.InstructorID]++
	}

	instructors, err := u.store.ListInstructors()
	if err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	if len(instructors) == 0 {
		return &domain.RecommendationSet{CourseID: course.ID, Items: []domain.Recommendation{}}, nil
	}

	courseVec, courseHash, err := u.embCache.GetOrCreate(
		store.CourseKey(course.ID),
		profiletext.RenderCourse(course),
		course.EmbeddingHash,
		u.embedOne,
	)
	if err != nil {
		return nil, err
	}
	if courseHash != course.EmbeddingHash {
		course.EmbeddingHash = courseHash
		if err := u.store.PutCourse(course); err != nil {
			u.log.Warn().Err(err).Str("course_id", course.ID).Msg("failed to persist embedding hash")
		}
	}

	vectors := make([][]float32, len(instructors))
	var staleProfiles []domain.InstructorProfile
	for i, p := range instructors {
		vec, hash, err := u.embCache.GetOrCreate(
			store.InstructorKey(p.ID),
			profiletext.RenderInstructor(p),
			p.EmbeddingHash,
			u.embedOne,
		)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
		if hash != p.EmbeddingHash {
			p.EmbeddingHash = hash
			staleProfiles = append(staleProfiles, p)
		}
	}
	// Hash-pointer updates are queued during embedding and committed once.
	for _, p := range staleProfiles {
		if err := u.store.PutInstructor(p); err != nil {
			u.log.Warn().Err(err).Str("instructor_id", p.ID).Msg("failed to persist embedding hash")
		}
	}

	similarities := scorer.CosineAll(courseVec, vectors)

	cands := make([]scorer.Candidate, len(instructors))
	for i, p := range instructors {
		cands[i] = scorer.Candidate{
			InstructorID: p.ID,
			History:      scorer.HistoryScore(periodCounts[p.ID], opts.VeteranThreshold),
			Semantic:     similarities[i],
		}
	}
	scorer.Combine(cands, opts.HistoryWeight, opts.SemanticWeight)
	scorer.Rank(cands)
	top := scorer.TopK(cands, opts.TopK)

	byID := make(map[string]domain.InstructorProfile, len(instructors))
	for _, p := range instructors {
		byID[p.ID] = p
	}

	evidence := make([]domain.EvidenceSet, len(top))
	rows := make([][]float64, len(top))
	targets := make([]float64, len(top))
	for i, c := range top {
		ev := evidenceFor(course.Attributes, byID[c.InstructorID].Attributes)
		evidence[i] = ev
		rows[i] = []float64{
			float64(len(ev.Domains)),
			float64(len(ev.Languages)),
			float64(len(ev.Tools)),
			float64(len(ev.Methodologies)),
			float64(len(ev.Topics)),
			c.History,
			c.Semantic,
		}
		targets[i] = c.Combined
	}

	attributions, baseline := u.explain(rows, targets)

	entries := make([]domain.CachedRecommendation, len(top))
	for i, c := range top {
		entries[i] = domain.CachedRecommendation{
			CourseID:        course.ID,
			InstructorID:    c.InstructorID,
			CombinedScore:   c.Combined,
			HistoricalScore: c.History,
			SemanticScore:   c.Semantic,
			Evidence:        evidence[i],
			Attribution:     attributions[i],
			Baseline:        baseline,
			Rank:            i + 1,
		}
	}

	set := &domain.RecommendationSet{CourseID: course.ID, Items: make([]domain.Recommendation, len(entries))}
	for i, e := range entries {
		set.Items[i] = toAPI(e, byID[e.InstructorID].Name, false)
	}

	u.log.Info().
		Str("course_id", course.ID).
		Int("candidates", len(cands)).
		Int("returned", len(set.Items)).
		Dur("elapsed", time.Since(started)).
		Msg("recommendations computed")

	if opts.UseCache {
		if err := u.store.ReplaceRecommendations(course.ID, entries, store.AlgorithmVersion); err != nil {
			return set, err
		}
	}

	return set, nil
}

// explain runs the attribution strategy; its failure is never fatal, a
// ranking without explanations still ships.
func (u *RecommendUseCase) explain(rows [][]float64, targets []float64) ([]map[string]float64, float64) {
	empty := func() []map[string]float64 {
		out := make([]map[string]float64, len(rows))
		for i := range out {
			out[i] = map[string]float64{}
		}
		return out
	}

	if u.attributor == nil || len(rows) == 0 {
		return empty(), 0
	}
	attributions, baseline, err := u.attributor.Attribute(featureNames, rows, targets)
	if err != nil || len(attributions) != len(rows) {
		u.log.Warn().Err(err).Msg("attribution failed, returning empty explanations")
		return empty(), 0
	}
	return attributions, baseline
}

func (u *RecommendUseCase) fromCache(courseID string, cached []domain.CachedRecommendation, topK int) *domain.RecommendationSet {
	if len(cached) > topK {
		cached = cached[:topK]
	}
	set := &domain.RecommendationSet{CourseID: courseID, FromCache: true}
	for _, e := range cached {
		p, err := u.store.GetInstructor(e.InstructorID)
		if err != nil {
			// Instructor removed since caching; skip the stale row.
			continue
		}
		set.Items = append(set.Items, toAPI(e, p.Name, true))
	}
	return set
}

func (u *RecommendUseCase) embedOne(text string) ([]float32, error) {
	vectors, err := u.embedder.Embed([]string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedderUnavailable, err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", domain.ErrEmbedderUnavailable)
	}
	return vectors[0], nil
}

// toAPI converts a stored [0,1] entry to the caller-facing representation:
// scores percentage-scaled and rounded to two decimals, attribution and
// baseline scaled on the same axis so the additive reconstruction survives
// the conversion.
func toAPI(e domain.CachedRecommendation, name string, fromCache bool) domain.Recommendation {
	attribution := make(map[string]float64, len(e.Attribution))
	for k, v := range e.Attribution {
		attribution[k] = v * 100
	}
	return domain.Recommendation{
		InstructorID:    e.InstructorID,
		InstructorName:  name,
		CombinedScore:   round2(e.CombinedScore * 100),
		HistoricalScore: round2(e.HistoricalScore * 100),
		SemanticScore:   round2(e.SemanticScore * 100),
		Evidence:        e.Evidence,
		Attribution:     attribution,
		Baseline:        e.Baseline * 100,
		Rank:            e.Rank,
		FromCache:       fromCache,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// evidenceFor intersects course and instructor attributes per category; the
// results double as scoring features and user-facing justifications.
func evidenceFor(course, instructor domain.AttributeSet) domain.EvidenceSet {
	return domain.EvidenceSet{
		Domains:       intersect(course.Domains, instructor.Domains),
		Languages:     intersect(course.Languages, instructor.Languages),
		Tools:         intersect(course.Tools, instructor.Tools),
		Methodologies: intersect(course.Methodologies, instructor.Methodologies),
		Topics:        intersect(course.Topics, instructor.Topics),
	}
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	out := []string{}
	seen := make(map[string]struct{})
	for _, s := range b {
		if _, ok := set[s]; ok {
			if _, dup := seen[s]; !dup {
				out = append(out, s)
				seen[s] = struct{}{}
			}
		}
	}
	sort.Strings(out)
	return out
}
