package intent

// TMDB genre ids.
const (
	GenreAction      = 28
	GenreAdventure   = 12
	GenreAnimation   = 16
	GenreComedy      = 35
	GenreCrime       = 80
	GenreDocumentary = 99
	GenreDrama       = 18
	GenreFamily      = 10751
	GenreFantasy     = 14
	GenreHistory     = 36
	GenreHorror      = 27
	GenreMusic       = 10402
	GenreMystery     = 9648
	GenreRomance     = 10749
	GenreSciFi       = 878
	GenreThriller    = 53
	GenreWar         = 10752
	GenreWestern     = 37
)

// genreKeywords maps lowercase folded keywords to genre ids. Matching is
// substring-based over the folded input; multiple matches union their ids.
// Order of application is fixed by sortedGenreKeywords for determinism.
var genreKeywords = map[string]int{
	"action":          GenreAction,
	"adventure":       GenreAdventure,
	"animated":        GenreAnimation,
	"animation":       GenreAnimation,
	"anime":           GenreAnimation,
	"comedy":          GenreComedy,
	"crime":           GenreCrime,
	"detective":       GenreMystery,
	"documentary":     GenreDocumentary,
	"drama":           GenreDrama,
	"family":          GenreFamily,
	"fantasy":         GenreFantasy,
	"funny":           GenreComedy,
	"history":         GenreHistory,
	"historical":      GenreHistory,
	"horror":          GenreHorror,
	"musical":         GenreMusic,
	"mystery":         GenreMystery,
	"romance":         GenreRomance,
	"romantic":        GenreRomance,
	"sci-fi":          GenreSciFi,
	"scifi":           GenreSciFi,
	"science fiction": GenreSciFi,
	"scary":           GenreHorror,
	"thriller":        GenreThriller,
	"war":             GenreWar,
	"western":         GenreWestern,
}

// moodGenres maps a classifier label onto a fixed genre set. The neutral
// mood (also the fallback for unknown labels) maps to a broad default.
var moodGenres = map[string][]int{
	"joy":      {GenreComedy, GenreFamily, GenreAdventure},
	"love":     {GenreRomance, GenreComedy},
	"sadness":  {GenreDrama, GenreRomance},
	"fear":     {GenreHorror, GenreThriller},
	"anger":    {GenreAction, GenreCrime},
	"surprise": {GenreMystery, GenreSciFi},
	"neutral":  {GenreAction, GenreComedy, GenreDrama},
}

// MoodGenres returns the genre set for a mood label, falling back to the
// neutral set for labels the table does not know.
func MoodGenres(mood string) []int {
	if ids, ok := moodGenres[mood]; ok {
		return append([]int(nil), ids...)
	}
	return append([]int(nil), moodGenres["neutral"]...)
}
