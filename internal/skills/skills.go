// Package skills finds vocabulary skills in free text.
//
// Every vocabulary entry is matched as literal text on whole-word
// boundaries and case-insensitively. Matches are reported in a canonical
// display form: first character upper case, the remainder lower case.
package skills

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Word characters are letters, digits, combining marks and underscore.
const (
	leftBoundary  = `(?:^|[^\p{L}\p{N}\p{M}_])`
	rightBoundary = `(?:[^\p{L}\p{N}\p{M}_]|$)`
)

type pattern struct {
	canonical string
	re        *regexp.Regexp
}

// Extractor holds the compiled patterns for one vocabulary. It is
// immutable after construction and safe for concurrent use.
type Extractor struct {
	patterns []pattern
}

// NewExtractor compiles a vocabulary. Blank entries and case-insensitive
// duplicates are skipped.
func NewExtractor(vocabulary []string) *Extractor {
	lower := cases.Lower(language.Und)
	seen := make(map[string]struct{}, len(vocabulary))
	e := &Extractor{patterns: make([]pattern, 0, len(vocabulary))}

	for _, entry := range vocabulary {
		normalized := lower.String(strings.TrimSpace(entry))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}

		e.patterns = append(e.patterns, pattern{
			canonical: Canonical(normalized),
			re:        regexp.MustCompile(literalPattern(normalized)),
		})
	}
	return e
}

// literalPattern quotes every token of the entry; runs of whitespace
// inside multi-word skills match any run of whitespace in the text.
func literalPattern(entry string) string {
	tokens := strings.Fields(entry)
	for i, tok := range tokens {
		tokens[i] = regexp.QuoteMeta(tok)
	}
	return leftBoundary + strings.Join(tokens, `\s+`) + rightBoundary
}

// Len returns the number of distinct skills the extractor recognizes.
func (e *Extractor) Len() int {
	return len(e.patterns)
}

// Extract returns the canonical forms of every vocabulary skill found in
// text, sorted. The result is never nil.
func (e *Extractor) Extract(text string) []string {
	found := []string{}
	if text == "" || len(e.patterns) == 0 {
		return found
	}

	lowered := cases.Lower(language.Und).String(text)
	seen := make(map[string]struct{})
	for _, p := range e.patterns {
		if _, ok := seen[p.canonical]; ok {
			continue
		}
		if p.re.MatchString(lowered) {
			seen[p.canonical] = struct{}{}
			found = append(found, p.canonical)
		}
	}

	slices.Sort(found)
	return found
}

// Extract is a convenience for NewExtractor(vocabulary).Extract(text).
func Extract(text string, vocabulary []string) []string {
	return NewExtractor(vocabulary).Extract(text)
}

// Canonical renders a skill for display: the first character upper case
// and the rest lower case. "machine LEARNING" becomes "Machine learning".
func Canonical(skill string) string {
	s := cases.Lower(language.Und).String(strings.TrimSpace(skill))
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToTitle(r)) + s[size:]
}
