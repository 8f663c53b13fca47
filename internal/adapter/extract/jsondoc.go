package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"teachmatch/internal/domain"
)

// JSONExtractor reads pre-structured documents: the export format produced
// by the upstream document service, one JSON object (or array of schedule
// rows) per file. It stands in for a full OCR/NER pipeline, which is out of
// scope here; the port contracts are the same either way.
type JSONExtractor struct{}

func NewJSONExtractor() *JSONExtractor {
	return &JSONExtractor{}
}

type profileDoc struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Degree        string   `json:"degree"`
	Code          string   `json:"code"`
	Cycle         int      `json:"cycle"`
	Text          string   `json:"text"`
	Domains       []string `json:"domains"`
	Languages     []string `json:"languages"`
	Tools         []string `json:"tools"`
	Methodologies []string `json:"methodologies"`
	Topics        []string `json:"topics"`
}

type scheduleDoc struct {
	Period string `json:"period"`
	Rows   []struct {
		Instructor string `json:"instructor"`
		CourseCode string `json:"course_code"`
		CourseName string `json:"course_name"`
		Period     string `json:"period"`
	} `json:"rows"`
}

func (e *JSONExtractor) ExtractProfile(raw []byte) (domain.ExtractedProfile, error) {
	var doc profileDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.ExtractedProfile{}, fmt.Errorf("parse profile document: %w", err)
	}
	return domain.ExtractedProfile{
		Name:     strings.TrimSpace(doc.Name),
		Email:    strings.TrimSpace(doc.Email),
		Degree:   strings.TrimSpace(doc.Degree),
		Code:     strings.TrimSpace(doc.Code),
		Cycle:    doc.Cycle,
		FreeText: doc.Text,
		Attributes: domain.AttributeSet{
			Domains:       doc.Domains,
			Languages:     doc.Languages,
			Tools:         doc.Tools,
			Methodologies: doc.Methodologies,
			Topics:        doc.Topics,
		},
	}, nil
}

func (e *JSONExtractor) ExtractSchedule(raw []byte) ([]domain.RawAssignment, error) {
	var doc scheduleDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse schedule document: %w", err)
	}
	rows := make([]domain.RawAssignment, 0, len(doc.Rows))
	for _, r := range doc.Rows {
		if strings.TrimSpace(r.Instructor) == "" || strings.TrimSpace(r.CourseName) == "" {
			continue
		}
		period := r.Period
		if period == "" {
			period = doc.Period
		}
		rows = append(rows, domain.RawAssignment{
			InstructorName: r.Instructor,
			CourseCode:     r.CourseCode,
			CourseName:     r.CourseName,
			Period:         period,
		})
	}
	return rows, nil
}
