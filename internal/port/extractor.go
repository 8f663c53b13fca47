package port

import "teachmatch/internal/domain"

// ProfileExtractor turns a raw CV or syllabus document into structured
// attributes plus free text. Implementations wrap external document
// services; failures may be transient (rate limits, truncated output).
type ProfileExtractor interface {
	ExtractProfile(raw []byte) (domain.ExtractedProfile, error)
}

// ScheduleExtractor turns a raw schedule document into noisy assignment
// rows. The period on each row may be empty; callers fill it from the
// document name or header.
type ScheduleExtractor interface {
	ExtractSchedule(raw []byte) ([]domain.RawAssignment, error)
}

// Tagger categorizes free text into attribute sets. It is synchronous and
// deterministic; the only observable failure mode is empty sets.
type Tagger interface {
	Tag(text string) domain.AttributeSet
}
