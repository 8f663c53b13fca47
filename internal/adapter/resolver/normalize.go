package resolver

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWordRe = regexp.MustCompile(`[^\w\s]`)
	// Course headers often drag trailing noise behind the name.
	modalityRe = regexp.MustCompile(`MODALIDAD.*`)
	totalRe    = regexp.MustCompile(`TOTAL.*`)
)

// courseAbbreviations expands catalog-specific shorthand on whole-word
// boundaries. Schedules abbreviate aggressively ("SIST INFORM"), the catalog
// does not.
var courseAbbreviations = map[string]string{
	"SIST": "SISTEMAS", "INFORM": "INFORMACION", "GEST": "GESTION",
	"ADMIN": "ADMINISTRACION", "ADM": "ADMINISTRACION", "DESARR": "DESARROLLO",
	"DESA": "DESARROLLO", "APLIC": "APLICACIONES", "PROG": "PROGRAMACION",
	"PROGRAM": "PROGRAMACION", "PROGRA": "PROGRAMACION", "ORGANIZ": "ORGANIZACION",
	"EMPRESAS": "EMPRESARIAL", "BASE": "BASES", "COMPUT": "COMPUTACION",
	"COMPUTAC": "COMPUTACION", "DISPOSIT": "DISPOSITIVOS", "INTELIG": "INTELIGENTES",
	"ESTRUCTURA": "ESTRUCTURAS", "ARQUI": "ARQUITECTURA", "INTR": "INTRODUCCION",
	"INTROD": "INTRODUCCION", "TECN": "TECNOLOGIA", "PROY": "PROYECTOS",
	"FOND": "FUNDAMENTOS", "FUND": "FUNDAMENTOS", "EVAL": "EVALUACION",
	"FORM": "FORMULACION", "CUANTITAT": "CUANTITATIVOS", "TALL": "TALLER",
	"INTEG": "INTEGRACION", "AMB": "AMBIENTE", "SOST": "SOSTENIBLE",
	"SEG": "SEGURIDAD", "INF": "INFORMACION", "JUEG": "JUEGOS",
	"DECISION": "DECISIONES",
}

var abbrevRes = buildAbbrevPatterns()

type abbrevPattern struct {
	re          *regexp.Regexp
	replacement string
}

func buildAbbrevPatterns() []abbrevPattern {
	// Deterministic expansion order: longer abbreviations first so prefixes
	// like PROG never shadow PROGRAM.
	keys := make([]string, 0, len(courseAbbreviations))
	for k := range courseAbbreviations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	patterns := make([]abbrevPattern, 0, len(keys))
	for _, k := range keys {
		patterns = append(patterns, abbrevPattern{
			re:          regexp.MustCompile(`\b` + k + `\b`),
			replacement: courseAbbreviations[k],
		})
	}
	return patterns
}

var diacriticsRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics removes combining marks so "JOSÉ" and "JOSE" compare equal.
func StripDiacritics(s string) string {
	out, _, err := transform.String(diacriticsRemover, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeInstructorName uppercases, strips diacritics and punctuation, and
// collapses whitespace.
func NormalizeInstructorName(name string) string {
	if name == "" {
		return ""
	}
	name = strings.ToUpper(strings.TrimSpace(name))
	name = StripDiacritics(name)
	name = strings.ReplaceAll(name, ",", " ")
	name = nonWordRe.ReplaceAllString(name, " ")
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeCourseName applies the instructor normalization plus course
// header cleanup and whole-word abbreviation expansion.
func NormalizeCourseName(name string) string {
	if name == "" {
		return ""
	}
	name = strings.ToUpper(strings.TrimSpace(name))
	name = StripDiacritics(name)
	name = modalityRe.ReplaceAllString(name, "")
	name = totalRe.ReplaceAllString(name, "")

	for _, p := range abbrevRes {
		name = p.re.ReplaceAllString(name, p.replacement)
	}

	name = nonWordRe.ReplaceAllString(name, " ")
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeCourseCode strips spaces and hyphens and uppercases, so
// "icsi 424" and "ICSI-424" compare equal.
func NormalizeCourseCode(code string) string {
	code = strings.ReplaceAll(code, " ", "")
	code = strings.ReplaceAll(code, "-", "")
	return strings.ToUpper(code)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// Jaccard computes token-set similarity between two normalized strings.
func Jaccard(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}
	inter := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

// NameSimilarity scores two normalized person names. Fewer than two
// overlapping tokens (first plus last name) forces the score to 0 whatever
// Jaccard says; two or more add the bonus, capped at 1.0.
func NameSimilarity(a, b string, bonus float64) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}
	inter := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			inter++
		}
	}
	if inter < 2 {
		return 0.0
	}
	union := len(sa) + len(sb) - inter
	score := float64(inter)/float64(union) + bonus
	if score > 1.0 {
		return 1.0
	}
	return score
}
