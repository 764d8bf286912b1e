// Package artifact decodes the precomputed search index artifact
// (search_index.{lang}.json) produced by the site generator.
//
// The artifact follows the elasticlunr serialization: a field list, a
// reference key, the token pipeline, the serialized inverted index and a
// document store mapping references to document records. The inverted index
// is kept opaque; indexes are rebuilt from the document store.
package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Well-known document fields.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldBody        = "body"
)

// Artifact is a decoded search index artifact. It is read-only after Parse.
type Artifact struct {
	Version       string          `json:"version"`
	Fields        []string        `json:"fields"`
	Ref           string          `json:"ref"`
	Pipeline      []string        `json:"pipeline"`
	DocumentStore DocumentStore   `json:"documentStore"`
	Index         json.RawMessage `json:"index,omitempty"`

	records map[string]Record
	byID    map[string]string
	invalid map[string]error
	refs    []string
}

// DocumentStore maps document references to raw document records.
type DocumentStore struct {
	Save   bool                       `json:"save"`
	Length int                        `json:"length"`
	Docs   map[string]json.RawMessage `json:"docs"`
}

// Record is a decoded document record.
type Record struct {
	// Ref is the document store key.
	Ref string
	// ID is the record's own "id" property, empty when absent.
	ID          string
	Title       string
	Description string
	Body        string
	// Fields holds every string-valued property, including the ones above.
	Fields map[string]string
}

// Store resolves document references to records.
type Store interface {
	Record(ref string) (Record, bool)
}

// Parse decodes an artifact from r and decodes every document record.
// Records that cannot be decoded are kept aside and reported by Invalid;
// they never fail the parse.
func Parse(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode search index: %w", err)
	}
	a.decodeRecords()
	return &a, nil
}

func (a *Artifact) decodeRecords() {
	a.records = make(map[string]Record, len(a.DocumentStore.Docs))
	a.byID = make(map[string]string, len(a.DocumentStore.Docs))
	a.invalid = make(map[string]error)
	a.refs = make([]string, 0, len(a.DocumentStore.Docs))

	for ref, raw := range a.DocumentStore.Docs {
		a.refs = append(a.refs, ref)
		rec, err := DecodeRecord(ref, raw)
		if err != nil {
			a.invalid[ref] = err
			continue
		}
		a.records[ref] = rec
		if rec.ID != "" {
			a.byID[rec.ID] = ref
		}
	}
	sort.Strings(a.refs)
}

// RefKey returns the configured reference property, defaulting to "id".
func (a *Artifact) RefKey() string {
	if a.Ref == "" {
		return FieldID
	}
	return a.Ref
}

// Refs returns every document store key in sorted order, valid or not.
func (a *Artifact) Refs() []string {
	return a.refs
}

// Record implements Store. The reference may be a store key or a record id.
func (a *Artifact) Record(ref string) (Record, bool) {
	if rec, ok := a.records[ref]; ok {
		return rec, true
	}
	if key, ok := a.byID[ref]; ok {
		return a.records[key], true
	}
	return Record{}, false
}

// Invalid returns why the record at ref could not be decoded, or nil.
func (a *Artifact) Invalid(ref string) error {
	return a.invalid[ref]
}

// InvalidCount returns how many records could not be decoded.
func (a *Artifact) InvalidCount() int {
	return len(a.invalid)
}

// Len returns the number of entries in the document store.
func (a *Artifact) Len() int {
	return len(a.DocumentStore.Docs)
}

// Verify interface implementation
var _ Store = (*Artifact)(nil)
