package profiletext

import (
	"strings"

	"teachmatch/internal/domain"
)

// maxContextChars caps the free-text portion of a rendered profile to bound
// embedding cost. Structured attributes are never truncated.
const maxContextChars = 3000

// Render produces the embeddable string for an entity: description and
// context first, then one sentence per non-empty attribute category in
// fixed order, then a duplicated profile/competencies sentence that
// upweights structured attributes relative to free text. Deterministic:
// identical input renders byte-identical output.
func Render(attrs domain.AttributeSet, description, context string) string {
	var parts []string

	if description != "" {
		parts = append(parts, "Description: "+description)
	}
	if context != "" {
		if len(context) > maxContextChars {
			context = context[:maxContextChars]
		}
		parts = append(parts, "Background: "+context)
	}

	var sentences []string
	if len(attrs.Domains) > 0 {
		sentences = append(sentences, "Domains of expertise: "+strings.Join(attrs.Domains, ", ")+".")
	}
	if len(attrs.Languages) > 0 {
		sentences = append(sentences, "Programming languages: "+strings.Join(attrs.Languages, ", ")+".")
	}
	if len(attrs.Tools) > 0 {
		sentences = append(sentences, "Tools and technologies: "+strings.Join(attrs.Tools, ", ")+".")
	}
	if len(attrs.Methodologies) > 0 {
		sentences = append(sentences, "Methodologies: "+strings.Join(attrs.Methodologies, ", ")+".")
	}
	if len(attrs.Topics) > 0 {
		sentences = append(sentences, "Topics covered: "+strings.Join(attrs.Topics, ", ")+".")
	}

	if len(sentences) > 0 {
		profile := strings.Join(sentences, " ")
		parts = append(parts, "Main profile: "+profile)
		parts = append(parts, "Competencies: "+profile)
	}

	return strings.Join(parts, " ")
}

// RenderCourse renders a course profile. The course name is repeated as a
// prefix to upweight it against the rest of the text; the repetition is
// intentional.
func RenderCourse(c domain.CourseProfile) string {
	prefix := strings.Repeat("Course: "+c.Name+". ", 3)
	return prefix + Render(c.Attributes, c.Description, "")
}

// RenderInstructor renders an instructor profile; the biography goes in as
// context text.
func RenderInstructor(p domain.InstructorProfile) string {
	return Render(p.Attributes, "", p.Biography)
}
