// Package resolve locates the search index artifact for a page.
//
// The language code and base path are derived purely from what the page
// declares about itself: the lang and data-base-path attributes of the root
// element, a <base href>, and as a last resort the page's own URL path.
package resolve

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
)

// Element identifiers the search UI relies on.
const (
	SearchInputID   = "search-input"
	SearchResultsID = "search-results"
	SearchStatusID  = "search-status"

	// BasePathAttr is the root-element attribute that overrides base path detection.
	BasePathAttr = "data-base-path"
)

// Page holds the runtime signals read from a page.
type Page struct {
	// URL is the address the page was loaded from. May be nil.
	URL *url.URL

	// Lang is the raw lang attribute of the root element.
	Lang string

	// BasePathOverride is the raw data-base-path attribute. An empty
	// attribute counts as absent.
	BasePathOverride string

	// BaseHref is the href of the first <base> element, as written.
	BaseHref string

	// HasSearchInput reports whether the page carries the search input element.
	// Without it the search feature stays disabled.
	HasSearchInput bool
}

// ParsePage reads an HTML page, decoding it to UTF-8 using the content type
// and any <meta charset> declaration.
func ParsePage(r io.Reader, contentType string, pageURL *url.URL) (*Page, error) {
	utf8, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, sserrors.New(sserrors.ErrCodePageUnreadable, "page charset could not be decoded", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8)
	if err != nil {
		return nil, sserrors.New(sserrors.ErrCodePageUnreadable, "page could not be parsed", err)
	}

	page := &Page{URL: pageURL}

	root := doc.Find("html").First()
	page.Lang = strings.TrimSpace(root.AttrOr("lang", ""))
	page.BasePathOverride = root.AttrOr(BasePathAttr, "")

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		page.BaseHref = strings.TrimSpace(href)
	}
	page.HasSearchInput = doc.Find("#"+SearchInputID).Length() > 0

	return page, nil
}
