package port

import (
	"time"

	"teachmatch/internal/domain"
)

// CatalogStore is the persistence contract for profiles, assignment history,
// the recommendation cache and the embedding cache. Multi-row writes are
// transactional: they apply fully or leave the store untouched.
type CatalogStore interface {
	PutInstructor(p domain.InstructorProfile) error

	GetInstructor(id string) (domain.InstructorProfile, error)

	ListInstructors() ([]domain.InstructorProfile, error)

	DeleteInstructor(id string) error

	PutCourse(c domain.CourseProfile) error

	GetCourse(id string) (domain.CourseProfile, error)

	ListCourses() ([]domain.CourseProfile, error)

	DeleteCourse(id string) error

	// ApplyAssignments upserts aggregated assignment increments and appends
	// biography notes in one transaction. Existing records are incremented
	// and their last-seen timestamp refreshed; missing records are created
	// with the increment as initial count. Note appends are idempotent.
	// Returns (created, incremented).
	ApplyAssignments(incs []domain.AssignmentIncrement, notes []domain.BiographyNote) (int, int, error)

	GetAssignmentsByCourse(courseID string) ([]domain.AssignmentRecord, error)

	GetAssignmentsByInstructor(instructorID string) ([]domain.AssignmentRecord, error)

	// GetRecommendations returns the cached ranked list for a course, oldest
	// rank first. A stale list (any entry older than maxAge) or one with
	// fewer than minCount entries is a miss and returns an empty slice.
	GetRecommendations(courseID string, maxAge time.Duration, minCount int) ([]domain.CachedRecommendation, error)

	// ReplaceRecommendations atomically swaps the ranked list for a course:
	// all previous entries are removed and the new ones inserted with dense
	// 1..N ranks. On failure the previous list remains intact.
	ReplaceRecommendations(courseID string, entries []domain.CachedRecommendation, algorithmVersion string) error

	// ClearRecommendations removes cached entries for one course, or for
	// every course when courseID is empty. Returns the number removed.
	ClearRecommendations(courseID string) (int, error)

	CacheStats() (domain.CacheStats, error)

	PutEmbedding(key string, rec domain.EmbeddingRecord) error

	GetEmbedding(key string) (domain.EmbeddingRecord, error)

	// ClearEmbeddings removes cached vectors whose key starts with prefix
	// ("" clears everything). Returns the number removed.
	ClearEmbeddings(prefix string) (int, error)

	Close() error
}
