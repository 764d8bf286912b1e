package render

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
)

// Messages is a catalog of user-facing texts for one language.
type Messages struct {
	Tag language.Tag

	Unavailable string
	Loading     string
	// NoResults, ResultsOne and ResultsMany are format strings. NoResults
	// takes the query; the others take the count and the query.
	NoResults   string
	ResultsOne  string
	ResultsMany string
	Untitled    string
}

// English is the default catalog.
var English = Messages{
	Tag:         language.English,
	Unavailable: "Search is unavailable",
	Loading:     "Loading search index...",
	NoResults:   "No results for «%s»",
	ResultsOne:  "%d result for «%s»",
	ResultsMany: "%d results for «%s»",
	Untitled:    "Untitled",
}

// Norwegian carries the texts of the food recipe site the search was built for.
var Norwegian = Messages{
	Tag:         language.Norwegian,
	Unavailable: "Søkefunksjonen er ikke tilgjengelig",
	Loading:     "Laster søkeindeks...",
	NoResults:   `Ingen resultater for "%s"`,
	ResultsOne:  `%d resultat for "%s"`,
	ResultsMany: `%d resultater for "%s"`,
	Untitled:    "Uten tittel",
}

var (
	catalogMu sync.RWMutex
	catalogs  = []Messages{English, Norwegian}
	matcher   = language.NewMatcher([]language.Tag{English.Tag, Norwegian.Tag})
)

// RegisterMessages adds or replaces the catalog for m.Tag.
func RegisterMessages(m Messages) {
	catalogMu.Lock()
	defer catalogMu.Unlock()

	for i, c := range catalogs {
		if c.Tag == m.Tag {
			catalogs[i] = m
			return
		}
	}
	catalogs = append(catalogs, m)
	tags := make([]language.Tag, len(catalogs))
	for i, c := range catalogs {
		tags[i] = c.Tag
	}
	matcher = language.NewMatcher(tags)
}

// MessagesFor picks the catalog that best matches the preferred languages,
// given as BCP 47 strings. English wins when nothing matches.
func MessagesFor(preferred ...string) Messages {
	var tags []language.Tag
	for _, p := range preferred {
		if p == "" {
			continue
		}
		if t, err := language.Parse(p); err == nil {
			tags = append(tags, t)
		}
	}

	catalogMu.RLock()
	defer catalogMu.RUnlock()

	if len(tags) == 0 {
		return catalogs[0]
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return catalogs[0]
	}
	return catalogs[index]
}

// Count formats the result count line, singular for exactly one.
func (m Messages) Count(n int, query string) string {
	switch n {
	case 0:
		return fmt.Sprintf(m.NoResults, query)
	case 1:
		return fmt.Sprintf(m.ResultsOne, n, query)
	default:
		return fmt.Sprintf(m.ResultsMany, n, query)
	}
}
