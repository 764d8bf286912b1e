package resolve

import "strings"

// BasePathStrategy guesses the site root from the page's URL path when the
// page declares no base path of its own.
type BasePathStrategy interface {
	BasePath(urlPath string) string
}

// RootStrategy always answers "/".
type RootStrategy struct{}

// BasePath implements BasePathStrategy.
func (RootStrategy) BasePath(string) string { return "/" }

// MarkerStrategy answers with the first marker segment found in the URL path,
// or "/" when none matches. Markers are deployment specific: a site served
// under https://host/food-recipes/ would configure "/food-recipes/".
type MarkerStrategy struct {
	markers []string
}

// NewMarkerStrategy returns a strategy for the given markers. Markers are
// normalised to "/segment/" and empty ones are dropped.
func NewMarkerStrategy(markers ...string) MarkerStrategy {
	var cleaned []string
	for _, m := range markers {
		if c := cleanMarker(m); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return MarkerStrategy{markers: cleaned}
}

// Markers returns the normalised markers.
func (s MarkerStrategy) Markers() []string {
	return append([]string(nil), s.markers...)
}

// BasePath implements BasePathStrategy.
func (s MarkerStrategy) BasePath(urlPath string) string {
	// A bare "/food-recipes" (no trailing slash) still counts as being under it.
	probe := urlPath
	if !strings.HasSuffix(probe, "/") {
		probe += "/"
	}
	for _, m := range s.markers {
		if strings.Contains(probe, m) {
			return m
		}
	}
	return "/"
}

// StrategyFunc adapts a function to BasePathStrategy.
type StrategyFunc func(urlPath string) string

// BasePath implements BasePathStrategy.
func (f StrategyFunc) BasePath(urlPath string) string { return f(urlPath) }
