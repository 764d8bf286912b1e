// Package store provides the in-memory full-text index that queries run against.
//
// An index is built once from a set of documents and is read-only afterwards;
// the language registry decides which bleve analyzer tokenizes the fields.
package store

import (
	"context"
)

// Document is a single record added to an index.
// Fields holds the text of each indexed field keyed by field name.
type Document struct {
	Ref    string
	Fields map[string]string
}

// Hit is a reference into the document store plus its relevance score.
type Hit struct {
	Ref   string  `json:"ref"`
	Score float64 `json:"score"`
}

// FieldBoost weights matches in one field.
type FieldBoost struct {
	Field string
	Boost float64
}

// Query describes a lookup across several fields.
// Terms are combined with OR; Expand adds prefix matches for every analyzed term.
type Query struct {
	Text   string
	Fields []FieldBoost
	Expand bool
	// Limit caps the number of hits returned. Zero returns every match.
	Limit int
}

// IndexSpec configures the fields and language of a new index.
type IndexSpec struct {
	Fields   []string
	Language Language
}

// Index is a queryable full-text index.
type Index interface {
	// Search returns hits ordered by descending score and the total match count.
	Search(ctx context.Context, q Query) ([]Hit, int, error)

	// DocCount returns the number of indexed documents.
	DocCount() int

	// Refs returns the reference of every indexed document.
	Refs() ([]string, error)

	// Close releases the index.
	Close() error
}
