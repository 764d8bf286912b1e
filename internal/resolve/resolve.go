package resolve

import (
	"net/url"
	"path"
	"strings"
)

// DefaultLanguage is used when a page declares no language.
const DefaultLanguage = "no"

// Location is a resolved artifact location.
type Location struct {
	Language string
	BasePath string
}

// ArtifactPath returns {basePath}search_index.{lang}.json.
// The base path is used verbatim, so a base path without a trailing slash
// yields a path the site generator never produced.
func (l Location) ArtifactPath() string {
	return l.BasePath + "search_index." + l.Language + ".json"
}

// ArtifactURL resolves the artifact path against the page URL. With no page
// URL the bare path is returned.
func (l Location) ArtifactURL(pageURL *url.URL) string {
	p := l.ArtifactPath()
	if pageURL == nil {
		return p
	}
	ref, err := url.Parse(p)
	if err != nil {
		return p
	}
	return pageURL.ResolveReference(ref).String()
}

// LanguageCode returns the part of lang before the first '-', or def when
// lang is empty. "nb-NO" yields "nb".
func LanguageCode(lang, def string) string {
	if lang == "" {
		return def
	}
	code, _, _ := strings.Cut(lang, "-")
	return code
}

// Resolver turns page signals into an artifact location.
type Resolver struct {
	DefaultLanguage string
	Strategy        BasePathStrategy
}

// NewResolver returns a resolver with the given default language and base
// path strategy. A nil strategy always falls back to "/".
func NewResolver(defaultLanguage string, strategy BasePathStrategy) *Resolver {
	if defaultLanguage == "" {
		defaultLanguage = DefaultLanguage
	}
	if strategy == nil {
		strategy = RootStrategy{}
	}
	return &Resolver{DefaultLanguage: defaultLanguage, Strategy: strategy}
}

// Resolve never fails; an unusable location surfaces later as a failed fetch.
func (r *Resolver) Resolve(p *Page) Location {
	if p == nil {
		p = &Page{}
	}
	return Location{
		Language: LanguageCode(p.Lang, r.DefaultLanguage),
		BasePath: r.basePath(p),
	}
}

// basePath applies the priority order: override attribute, <base href>,
// then the pluggable strategy.
func (r *Resolver) basePath(p *Page) string {
	if p.BasePathOverride != "" {
		return p.BasePathOverride
	}

	if p.BaseHref != "" {
		if bp, ok := baseHrefPath(p.BaseHref, p.URL); ok {
			return bp
		}
	}

	urlPath := "/"
	if p.URL != nil && p.URL.Path != "" {
		urlPath = p.URL.Path
	}
	return r.Strategy.BasePath(urlPath)
}

// baseHrefPath returns the path component of href resolved against the page.
func baseHrefPath(href string, pageURL *url.URL) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if pageURL != nil {
		u = pageURL.ResolveReference(u)
	}
	if u.Path == "" {
		return "/", true
	}
	if !strings.HasPrefix(u.Path, "/") {
		// Relative href without a page to resolve against.
		return "/" + u.Path, true
	}
	return u.Path, true
}

// cleanMarker normalises a marker to the "/segment/" form.
func cleanMarker(m string) string {
	m = strings.Trim(m, "/")
	if m == "" {
		return ""
	}
	return "/" + path.Clean(m) + "/"
}
