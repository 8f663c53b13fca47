package resolver

import (
	"regexp"
	"strings"
)

// FallbackPeriod is recorded when neither the document name nor its header
// reveals an academic period.
const FallbackPeriod = "HISTORICO"

var (
	// Cycle is restricted to 10 or 20 so dates like 2024-08 don't pass as
	// periods.
	numericPeriodRe = regexp.MustCompile(`(20\d{2})[-_\s]?(10|20)`)
	romanPeriodRe   = regexp.MustCompile(`(?i)(20\d{2})[-_\s]?(I{1,2})\b`)
)

// PeriodFromFilename extracts an academic period such as "2024-10" from a
// document name. Returns "" when no period is present.
func PeriodFromFilename(filename string) string {
	m := numericPeriodRe.FindStringSubmatch(filename)
	if m == nil {
		return ""
	}
	return m[1] + "-" + m[2]
}

// PeriodFromText scans header text for a period, accepting both the numeric
// form (2024-10, 2024 20) and the roman form (2024-I, 2024-II). Falls back
// to FallbackPeriod.
func PeriodFromText(text string) string {
	if m := numericPeriodRe.FindStringSubmatch(text); m != nil {
		return m[1] + "-" + m[2]
	}
	if m := romanPeriodRe.FindStringSubmatch(text); m != nil {
		cycle := "10"
		if strings.EqualFold(m[2], "II") {
			cycle = "20"
		}
		return m[1] + "-" + cycle
	}
	return FallbackPeriod
}
