package intent

import (
	"context"
	"testing"
)

type stubMoods struct {
	mood  string
	calls int
}

func (s *stubMoods) Mood(ctx context.Context, text string) string {
	s.calls++
	return s.mood
}

func containsAll(got []int, want ...int) bool {
	set := make(map[int]struct{}, len(got))
	for _, id := range got {
		set[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

func TestParseQualifiedNameWithOpenUpperBound(t *testing.T) {
	p := NewParser(nil)
	filter := p.Parse(context.Background(), "movies with Tom Cruise before 2010")

	if filter.YearExact != 0 || filter.YearFrom != 0 {
		t.Fatalf("before qualifier must leave the lower bound open: %+v", filter)
	}
	if filter.YearTo != 2010 {
		t.Fatalf("YearTo: got %d", filter.YearTo)
	}
	if len(filter.PersonCandidates) == 0 || filter.PersonCandidates[0] != "Tom Cruise" {
		t.Fatalf("candidates: got %v", filter.PersonCandidates)
	}
}

func TestParseGenreUnionAndYearRange(t *testing.T) {
	p := NewParser(nil)
	filter := p.Parse(context.Background(), "sci-fi thriller 2015 2020")

	if !containsAll(filter.GenreIDs, GenreSciFi, GenreThriller) {
		t.Fatalf("genres: got %v", filter.GenreIDs)
	}
	if filter.YearExact != 0 {
		t.Fatalf("two year tokens must form a range, got exact %d", filter.YearExact)
	}
	if filter.YearFrom != 2015 || filter.YearTo != 2020 {
		t.Fatalf("range: got [%d,%d]", filter.YearFrom, filter.YearTo)
	}
}

func TestParseSingleYearIsExact(t *testing.T) {
	filter := NewParser(nil).Parse(context.Background(), "horror 1999")
	if filter.YearExact != 1999 || filter.YearFrom != 0 || filter.YearTo != 0 {
		t.Fatalf("unexpected years: %+v", filter)
	}
	if !containsAll(filter.GenreIDs, GenreHorror) {
		t.Fatalf("genres: got %v", filter.GenreIDs)
	}
}

func TestParseAfterQualifierOpensUpperBound(t *testing.T) {
	filter := NewParser(nil).Parse(context.Background(), "westerns after 1970")
	if filter.YearFrom != 1970 || filter.YearTo != 0 || filter.YearExact != 0 {
		t.Fatalf("unexpected years: %+v", filter)
	}
}

func TestParseBeforeWinsOverAfter(t *testing.T) {
	filter := NewParser(nil).Parse(context.Background(), "released after 1980 but before 1990")
	if filter.YearTo != 1980 {
		t.Fatalf("before must win and key on the first year token, got %+v", filter)
	}
	if filter.YearFrom != 0 {
		t.Fatalf("lower bound must stay open, got %d", filter.YearFrom)
	}
}

func TestParseOutOfRangeYearIgnored(t *testing.T) {
	filter := NewParser(nil).Parse(context.Background(), "ancient stuff from 1850")
	if filter.YearExact != 0 || filter.YearFrom != 0 || filter.YearTo != 0 {
		t.Fatalf("years outside [1900,2099] must be ignored: %+v", filter)
	}
}

func TestParsePromotesQualifiedNames(t *testing.T) {
	filter := NewParser(nil).Parse(context.Background(), "New York drama starring Meryl Streep")
	if len(filter.PersonCandidates) < 2 {
		t.Fatalf("candidates: got %v", filter.PersonCandidates)
	}
	if filter.PersonCandidates[0] != "Meryl Streep" {
		t.Fatalf("qualified name must come first: %v", filter.PersonCandidates)
	}
}

func TestParseLowercaseWordsAfterQualifierAreNotNames(t *testing.T) {
	filter := NewParser(nil).Parse(context.Background(), "a film with zombie robots")
	if len(filter.PersonCandidates) != 0 {
		t.Fatalf("lowercase words must not become person candidates, got %v", filter.PersonCandidates)
	}
}

func TestParseQualifierIsCaseInsensitive(t *testing.T) {
	filter := NewParser(nil).Parse(context.Background(), "Starring Tom Hanks")
	if len(filter.PersonCandidates) == 0 || filter.PersonCandidates[0] != "Tom Hanks" {
		t.Fatalf("candidates: got %v", filter.PersonCandidates)
	}
}

func TestParseDiacriticFoldedGenreMatch(t *testing.T) {
	filter := NewParser(nil).Parse(context.Background(), "comédy night")
	if !containsAll(filter.GenreIDs, GenreComedy) {
		t.Fatalf("folded keyword must match: %v", filter.GenreIDs)
	}
}

func TestParseMoodFromClassifier(t *testing.T) {
	moods := &stubMoods{mood: "fear"}
	filter := NewParser(moods).Parse(context.Background(), "something to keep me up at night")
	if filter.Mood != "fear" {
		t.Fatalf("mood: got %q", filter.Mood)
	}
	if moods.calls != 1 {
		t.Fatalf("classifier calls: got %d", moods.calls)
	}
}

func TestParseNeutralWithoutClassifier(t *testing.T) {
	filter := NewParser(nil).Parse(context.Background(), "whatever")
	if filter.Mood != "neutral" {
		t.Fatalf("mood: got %q", filter.Mood)
	}
}

func TestParseEmptyInputSkipsClassifier(t *testing.T) {
	moods := &stubMoods{mood: "joy"}
	filter := NewParser(moods).Parse(context.Background(), "   ")
	if filter.Mood != "neutral" || moods.calls != 0 {
		t.Fatalf("empty input must not reach the classifier: %+v calls=%d", filter, moods.calls)
	}
}

func TestMoodGenresFallback(t *testing.T) {
	if ids := MoodGenres("fear"); !containsAll(ids, GenreHorror, GenreThriller) {
		t.Fatalf("fear genres: got %v", ids)
	}
	neutral := MoodGenres("neutral")
	unknown := MoodGenres("no-such-label")
	if len(unknown) != len(neutral) {
		t.Fatalf("unknown labels must use the neutral set: %v vs %v", unknown, neutral)
	}
}
