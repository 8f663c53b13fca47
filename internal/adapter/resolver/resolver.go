package resolver

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"teachmatch/internal/domain"
	"teachmatch/internal/port"
)

// Thresholds holds the resolver's independently tunable acceptance bars.
// The asymmetry is deliberate: semantic matches are a last resort and more
// prone to false positives, so their bar (0.82) sits above the lexical
// acceptance bar (0.80), and the fallback only fires when the best lexical
// score signals a clear miss (< 0.50).
type Thresholds struct {
	InstructorAccept    float64
	InstructorBonus     float64
	CourseLexicalAccept float64
	SemanticTrigger     float64
	SemanticAccept      float64
}

// DefaultThresholds returns the empirically tuned acceptance bars.
func DefaultThresholds() Thresholds {
	return Thresholds{
		InstructorAccept:    0.50,
		InstructorBonus:     0.10,
		CourseLexicalAccept: 0.80,
		SemanticTrigger:     0.50,
		SemanticAccept:      0.82,
	}
}

type instructorEntry struct {
	id         string
	normalized string
}

type courseEntry struct {
	id         string
	name       string
	normalized string
	code       string
}

// Resolver matches noisy extracted names against a fixed catalog snapshot.
// Normalized catalog names are precomputed once so batch resolution never
// re-normalizes per row. The embedder is optional; without one the semantic
// fallback is skipped.
type Resolver struct {
	instructors []instructorEntry
	courses     []courseEntry
	embedder    port.Embedder
	thresholds  Thresholds
	log         zerolog.Logger

	// Catalog course-name embeddings, computed lazily on the first
	// semantic fallback and reused for the rest of the batch.
	courseVectors [][]float32
}

func New(instructors []domain.InstructorProfile, courses []domain.CourseProfile, embedder port.Embedder, th Thresholds, log zerolog.Logger) *Resolver {
	r := &Resolver{
		embedder:   embedder,
		thresholds: th,
		log:        log.With().Str("component", "resolver").Logger(),
	}
	for _, p := range instructors {
		r.instructors = append(r.instructors, instructorEntry{
			id:         p.ID,
			normalized: NormalizeInstructorName(p.Name),
		})
	}
	for _, c := range courses {
		r.courses = append(r.courses, courseEntry{
			id:         c.ID,
			name:       c.Name,
			normalized: NormalizeCourseName(c.Name),
			code:       NormalizeCourseCode(c.Code),
		})
	}
	return r
}

// Resolve matches one raw schedule row. Unresolvable rows come back as an
// unresolved variant with a reason; resolution never errors on ambiguity.
func (r *Resolver) Resolve(raw domain.RawAssignment) domain.Resolution {
	instructorID, ok := r.MatchInstructor(raw.InstructorName)
	if !ok {
		return domain.Resolution{Resolved: false, Reason: fmt.Sprintf("instructor %q not matched", raw.InstructorName)}
	}

	courseID, ok := r.MatchCourse(raw.CourseCode, raw.CourseName)
	if !ok {
		return domain.Resolution{Resolved: false, Reason: fmt.Sprintf("course %q not matched", raw.CourseName)}
	}

	return domain.Resolution{Resolved: true, InstructorID: instructorID, CourseID: courseID}
}

// MatchInstructor finds the best catalog instructor for a raw name. The
// two-token overlap rule inside NameSimilarity keeps single-name collisions
// out; acceptance requires the configured score. Equal scores break toward
// the lexicographically smaller ID so resolution is deterministic.
func (r *Resolver) MatchInstructor(rawName string) (string, bool) {
	query := NormalizeInstructorName(rawName)
	if query == "" {
		return "", false
	}

	bestID := ""
	bestScore := 0.0
	for _, e := range r.instructors {
		score := NameSimilarity(query, e.normalized, r.thresholds.InstructorBonus)
		if score > bestScore || (score == bestScore && score > 0 && (bestID == "" || e.id < bestID)) {
			bestScore = score
			bestID = e.id
		}
	}

	if bestScore >= r.thresholds.InstructorAccept {
		return bestID, true
	}
	return "", false
}

// MatchCourse resolves a course in priority order: exact normalized code
// match, lexical token-set similarity over normalized names, then the
// semantic fallback when the lexical signal is a clear miss.
func (r *Resolver) MatchCourse(rawCode, rawName string) (string, bool) {
	if rawCode != "" {
		code := NormalizeCourseCode(rawCode)
		for _, e := range r.courses {
			if e.code != "" && e.code == code {
				return e.id, true
			}
		}
	}

	query := NormalizeCourseName(rawName)
	if query == "" {
		return "", false
	}

	bestID := ""
	bestScore := 0.0
	for _, e := range r.courses {
		score := Jaccard(query, e.normalized)
		if score > bestScore || (score == bestScore && score > 0 && (bestID == "" || e.id < bestID)) {
			bestScore = score
			bestID = e.id
		}
	}

	if bestScore > r.thresholds.CourseLexicalAccept {
		return bestID, true
	}

	if bestScore < r.thresholds.SemanticTrigger {
		return r.matchCourseSemantic(query)
	}

	return "", false
}

// matchCourseSemantic embeds the normalized query and every catalog course
// name and accepts the best cosine match above the semantic bar.
func (r *Resolver) matchCourseSemantic(query string) (string, bool) {
	if r.embedder == nil || len(r.courses) == 0 {
		return "", false
	}

	if r.courseVectors == nil {
		names := make([]string, len(r.courses))
		for i, e := range r.courses {
			names[i] = e.normalized
		}
		vectors, err := r.embedder.Embed(names)
		if err != nil {
			r.log.Warn().Err(err).Msg("course name embedding failed, skipping semantic fallback")
			return "", false
		}
		r.courseVectors = vectors
	}

	queryVecs, err := r.embedder.Embed([]string{query})
	if err != nil || len(queryVecs) == 0 {
		r.log.Warn().Err(err).Msg("query embedding failed, skipping semantic fallback")
		return "", false
	}

	bestID := ""
	bestScore := 0.0
	for i, e := range r.courses {
		if i >= len(r.courseVectors) {
			break
		}
		score := cosine(queryVecs[0], r.courseVectors[i])
		if score > bestScore || (score == bestScore && score > 0 && (bestID == "" || e.id < bestID)) {
			bestScore = score
			bestID = e.id
		}
	}

	if bestScore > r.thresholds.SemanticAccept {
		r.log.Debug().Str("course_id", bestID).Float64("score", bestScore).Msg("semantic course match")
		return bestID, true
	}
	return "", false
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
