// Package intent extracts a best-effort filter (genres, years, person
// names, mood) from free-text queries like "sci-fi thriller starring Tom
// Cruise after 2010".
//
// This is a heuristic, not a grammar. Overlapping matches resolve by
// first-match-wins and unions, with no backtracking; the value of the
// component is that its decision order is deterministic, not that it is
// precise.
package intent

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"sofilmy/internal/domain"
)

var (
	yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	namePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`)
	// Qualifier phrase immediately preceding a name candidate promotes it.
	// The flag covers the qualifier only; the name part stays case-sensitive
	// so ordinary lowercase words never become candidates.
	qualifiedNamePattern = regexp.MustCompile(`\b(?i:starring|with|featuring)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`)

	beforePattern = regexp.MustCompile(`(?i)\b(?:before|until|pre)\b`)
	afterPattern  = regexp.MustCompile(`(?i)\b(?:after|since|post)\b`)
)

// foldTransformer strips diacritics so "Amélie" matches "amelie" keywords.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var sortedGenreKeywords = func() []string {
	keys := make([]string, 0, len(genreKeywords))
	for key := range genreKeywords {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}()

// MoodClassifier is the optional text-classification collaborator.
type MoodClassifier interface {
	Mood(ctx context.Context, text string) string
}

type Parser struct {
	moods MoodClassifier
}

func NewParser(moods MoodClassifier) *Parser {
	return &Parser{moods: moods}
}

// Parse builds an IntentFilter from free text. Decision order: genres,
// years, names, then mood. Consumers that matched explicit genre keywords
// typically ignore the mood's default genre set.
func (p *Parser) Parse(ctx context.Context, freeText string) domain.IntentFilter {
	text := strings.TrimSpace(freeText)
	if text == "" {
		return domain.IntentFilter{Mood: "neutral"}
	}

	filter := domain.IntentFilter{
		GenreIDs:         extractGenres(text),
		PersonCandidates: extractNames(text),
	}
	filter.YearExact, filter.YearFrom, filter.YearTo = extractYears(text)
	filter.Mood = p.mood(ctx, text)
	return filter
}

func (p *Parser) mood(ctx context.Context, text string) string {
	if p.moods == nil {
		return "neutral"
	}
	return p.moods.Mood(ctx, text)
}

func extractGenres(text string) []int {
	folded := foldText(text)
	seen := make(map[int]struct{})
	var ids []int
	for _, keyword := range sortedGenreKeywords {
		if !strings.Contains(folded, keyword) {
			continue
		}
		id := genreKeywords[keyword]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// extractYears scans for 4-digit tokens in [1900,2099]. One match is an
// exact year; two or more become an inclusive min/max range. A
// "before"/"after" qualifier overrides either shape to an open-ended bound
// keyed on the first year token; "before" wins when both appear.
func extractYears(text string) (exact, from, to int) {
	var years []int
	for _, match := range yearPattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.Atoi(match[1])
		if err != nil || value < 1900 || value > 2099 {
			continue
		}
		years = append(years, value)
	}
	if len(years) == 0 {
		return 0, 0, 0
	}

	switch {
	case beforePattern.MatchString(text):
		return 0, 0, years[0]
	case afterPattern.MatchString(text):
		return 0, years[0], 0
	case len(years) == 1:
		return years[0], 0, 0
	default:
		min, max := years[0], years[0]
		for _, y := range years[1:] {
			if y < min {
				min = y
			}
			if y > max {
				max = y
			}
		}
		return 0, min, max
	}
}

// extractNames collects sequences of two-or-more capitalized words.
// Candidates preceded by a starring/with/featuring qualifier are promoted
// to the front; within each class, document order is kept.
func extractNames(text string) []string {
	var qualified []string
	seen := make(map[string]struct{})
	for _, match := range qualifiedNamePattern.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		qualified = append(qualified, name)
	}

	var rest []string
	for _, match := range namePattern.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		rest = append(rest, name)
	}
	return append(qualified, rest...)
}

func foldText(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}
