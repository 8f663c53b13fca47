package extract

import (
	"sort"
	"strings"

	"teachmatch/internal/adapter/resolver"
	"teachmatch/internal/domain"
)

// KeywordTagger categorizes free text by vocabulary lookup. Matching is
// diacritics- and case-insensitive on word boundaries. It is deliberately
// simple; documents arriving with curated attributes bypass it entirely.
type KeywordTagger struct {
	domains       map[string]string
	languages     map[string]string
	tools         map[string]string
	methodologies map[string]string
	topics        map[string]string
}

// NewKeywordTagger builds a tagger from category vocabularies. Keys are the
// canonical attribute terms; each term matches itself and nothing else.
func NewKeywordTagger(domains, languages, tools, methodologies, topics []string) *KeywordTagger {
	index := func(terms []string) map[string]string {
		m := make(map[string]string, len(terms))
		for _, t := range terms {
			m[normalizeTerm(t)] = t
		}
		return m
	}
	return &KeywordTagger{
		domains:       index(domains),
		languages:     index(languages),
		tools:         index(tools),
		methodologies: index(methodologies),
		topics:        index(topics),
	}
}

// DefaultTagger covers the vocabulary seen across the partner institution's
// documents.
func DefaultTagger() *KeywordTagger {
	return NewKeywordTagger(
		[]string{
			"ingenieria de software", "ciencia de datos", "redes", "seguridad",
			"inteligencia artificial", "bases de datos", "sistemas de informacion",
			"arquitectura de computadoras", "gestion de proyectos",
		},
		[]string{"python", "java", "javascript", "typescript", "go", "c++", "c#", "sql", "r", "matlab"},
		[]string{"docker", "kubernetes", "git", "linux", "aws", "azure", "tensorflow", "pytorch", "excel", "power bi"},
		[]string{"scrum", "kanban", "agile", "pmbok", "design thinking", "devops", "tdd"},
		[]string{
			"machine learning", "deep learning", "estadistica", "algoritmos",
			"estructuras de datos", "programacion", "optimizacion", "vision computacional",
			"procesamiento de lenguaje natural",
		},
	)
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(resolver.StripDiacritics(s)))
}

// Tag scans the text for every vocabulary term and returns the matches per
// category, sorted and deduplicated.
func (t *KeywordTagger) Tag(text string) domain.AttributeSet {
	haystack := " " + normalizeTerm(text) + " "
	find := func(vocab map[string]string) []string {
		var out []string
		for needle, canonical := range vocab {
			if containsTerm(haystack, needle) {
				out = append(out, canonical)
			}
		}
		sort.Strings(out)
		return out
	}
	return domain.AttributeSet{
		Domains:       find(t.domains),
		Languages:     find(t.languages),
		Tools:         find(t.tools),
		Methodologies: find(t.methodologies),
		Topics:        find(t.topics),
	}
}

// containsTerm reports whether needle occurs in haystack bounded by
// non-letter characters, so "go" does not match inside "algorithm".
func containsTerm(haystack, needle string) bool {
	from := 0
	for {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return false
		}
		i += from
		before := haystack[i-1]
		afterIdx := i + len(needle)
		var after byte = ' '
		if afterIdx < len(haystack) {
			after = haystack[afterIdx]
		}
		if !isWordByte(before) && !isWordByte(after) {
			return true
		}
		from = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
