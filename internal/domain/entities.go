package domain

import "time"

// AttributeSet holds the structured attribute categories extracted from a
// profile document. Each slice contains normalized, deduplicated terms.
type AttributeSet struct {
	Domains       []string `json:"domains,omitempty"`
	Languages     []string `json:"languages,omitempty"`
	Tools         []string `json:"tools,omitempty"`
	Methodologies []string `json:"methodologies,omitempty"`
	Topics        []string `json:"topics,omitempty"`
}

type InstructorProfile struct {
	ID         string
	Name       string
	Email      string
	Degree     string
	Attributes AttributeSet
	// Biography is free-form CV text, extended with teaching notes as
	// schedule ingestion resolves assignments.
	Biography string
	// EmbeddingHash points at the content hash the cached embedding was
	// computed from. Empty or mismatching hash means the vector is stale.
	EmbeddingHash string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CourseProfile struct {
	ID            string
	Name          string
	Code          string
	Cycle         int
	Attributes    AttributeSet
	Description   string
	EmbeddingHash string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AssignmentRecord aggregates how often an instructor taught a course in a
// given period. At most one record exists per (instructor, course, period);
// counts only grow through aggregation.
type AssignmentRecord struct {
	InstructorID string
	CourseID     string
	Period       string
	Count        int
	LastSeen     time.Time
}

// EvidenceSet is the per-category intersection of course and instructor
// attributes, used both as scoring input and as user-facing justification.
type EvidenceSet struct {
	Domains       []string `json:"domains"`
	Languages     []string `json:"languages"`
	Tools         []string `json:"tools"`
	Methodologies []string `json:"methodologies"`
	Topics        []string `json:"topics"`
}

// Recommendation is one entry of a ranked list as returned to callers.
// Scores are percentage-scaled (0..100, rounded to two decimals). The
// attribution values and baseline share the same scale, so
// baseline + sum(attribution) reconstructs the combined score.
type Recommendation struct {
	InstructorID    string             `json:"instructor_id"`
	InstructorName  string             `json:"instructor_name"`
	CombinedScore   float64            `json:"combined_score"`
	HistoricalScore float64            `json:"historical_score"`
	SemanticScore   float64            `json:"semantic_score"`
	Evidence        EvidenceSet        `json:"evidence"`
	Attribution     map[string]float64 `json:"attribution"`
	Baseline        float64            `json:"baseline"`
	Rank            int                `json:"rank"`
	FromCache       bool               `json:"from_cache"`
}

// RecommendationSet is the ranked list for one course.
type RecommendationSet struct {
	CourseID  string           `json:"course_id"`
	Items     []Recommendation `json:"items"`
	FromCache bool             `json:"from_cache"`
}

// CachedRecommendation is the persisted form of one ranked entry. Scores are
// stored in the internal [0,1] range; scaling happens at the API edge.
type CachedRecommendation struct {
	CourseID         string             `json:"course_id"`
	InstructorID     string             `json:"instructor_id"`
	CombinedScore    float64            `json:"combined_score"`
	HistoricalScore  float64            `json:"historical_score"`
	SemanticScore    float64            `json:"semantic_score"`
	Evidence         EvidenceSet        `json:"evidence"`
	Attribution      map[string]float64 `json:"attribution"`
	Baseline         float64            `json:"baseline"`
	Rank             int                `json:"rank"`
	AlgorithmVersion string             `json:"algorithm_version"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

// CacheStats summarizes the recommendation cache contents.
type CacheStats struct {
	TotalEntries     int       `json:"total_entries"`
	CoursesWithCache int       `json:"courses_with_cache"`
	OldestTimestamp  time.Time `json:"oldest_timestamp"`
	NewestTimestamp  time.Time `json:"newest_timestamp"`
}

// EmbeddingRecord is a cached embedding vector keyed by entity identity.
type EmbeddingRecord struct {
	Vector      []float32 `json:"vector"`
	Hash        string    `json:"hash"`
	TextPreview string    `json:"text_preview"`
}

// RawAssignment is one noisy schedule row before entity resolution.
type RawAssignment struct {
	InstructorName string `json:"instructor_name"`
	CourseCode     string `json:"course_code,omitempty"`
	CourseName     string `json:"course_name"`
	Period         string `json:"period"`
}

// Resolution is the tagged outcome of resolving one RawAssignment.
type Resolution struct {
	Resolved     bool   `json:"resolved"`
	InstructorID string `json:"instructor_id,omitempty"`
	CourseID     string `json:"course_id,omitempty"`
	// Reason explains a skip when Resolved is false.
	Reason string `json:"reason,omitempty"`
}

// ResolutionReport summarizes a resolve-and-record batch.
type ResolutionReport struct {
	Resolved           int          `json:"resolved"`
	Unresolved         int          `json:"unresolved"`
	RecordsCreated     int          `json:"records_created"`
	RecordsIncremented int          `json:"records_incremented"`
	Outcomes           []Resolution `json:"outcomes"`
}

// AssignmentIncrement is one aggregated (instructor, course, period) upsert.
type AssignmentIncrement struct {
	InstructorID string
	CourseID     string
	Period       string
	Delta        int
}

// BiographyNote is a human-readable teaching note appended to an instructor
// biography. The append is idempotent on the note text.
type BiographyNote struct {
	InstructorID string
	Note         string
}

// ExtractedProfile is the structured output of document extraction.
type ExtractedProfile struct {
	Name       string
	Email      string
	Degree     string
	Code       string
	Cycle      int
	FreeText   string
	Attributes AttributeSet
}
