package artifact

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleArtifact = `{
  "version": "0.9.5",
  "fields": ["title", "body"],
  "ref": "id",
  "pipeline": ["trimmer-no", "stopWordFilter-no", "stemmer-no"],
  "documentStore": {
    "save": true,
    "length": 4,
    "docs": {
      "/r1": {"id": "/r1", "title": "Grilled Salmon", "description": "A simple salmon recipe"},
      "/r2": {"id": "/r2", "title": "Pasta", "body": "no salmon here, salmon", "weight": 3},
      "/bad": "not a document",
      "/typed": {"id": "/typed", "title": 42}
    }
  },
  "index": {"title": {"root": {}}}
}`

func TestParse_DecodesConfigurationAndRecords(t *testing.T) {
	// When: parsing a well-formed artifact
	a, err := Parse(strings.NewReader(sampleArtifact))
	require.NoError(t, err)

	// Then: the configuration is exposed
	assert.Equal(t, []string{"title", "body"}, a.Fields)
	assert.Equal(t, "id", a.RefKey())
	assert.Equal(t, []string{"trimmer-no", "stopWordFilter-no", "stemmer-no"}, a.Pipeline)
	assert.NotEmpty(t, a.Index)

	// And: every store key is listed in order
	assert.Equal(t, []string{"/bad", "/r1", "/r2", "/typed"}, a.Refs())
	assert.Equal(t, 4, a.Len())

	// And: valid records are decoded
	rec, ok := a.Record("/r1")
	require.True(t, ok)
	assert.Equal(t, "Grilled Salmon", rec.Title)
	assert.Equal(t, "A simple salmon recipe", rec.Description)
	assert.Empty(t, rec.Body)

	rec, ok = a.Record("/r2")
	require.True(t, ok)
	assert.Equal(t, "no salmon here, salmon", rec.Body)
	_, hasWeight := rec.Fields["weight"]
	assert.False(t, hasWeight, "non-string extra properties are dropped")
}

func TestParse_KeepsMalformedRecordsAside(t *testing.T) {
	a, err := Parse(strings.NewReader(sampleArtifact))
	require.NoError(t, err)

	assert.Equal(t, 2, a.InvalidCount())
	assert.True(t, errors.Is(a.Invalid("/bad"), ErrMalformed))
	assert.True(t, errors.Is(a.Invalid("/typed"), ErrMalformed))
	assert.NoError(t, a.Invalid("/r1"))

	_, ok := a.Record("/bad")
	assert.False(t, ok)
}

func TestParse_RejectsInvalidJSON(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"fields": [`))
	assert.Error(t, err)
}

func TestRecord_LooksUpByID(t *testing.T) {
	// Given: a store key that differs from the record id
	a, err := Parse(strings.NewReader(`{"documentStore": {"docs": {"k1": {"id": "/page/", "title": "Page"}}}}`))
	require.NoError(t, err)

	// Then: both the key and the id resolve
	byKey, ok := a.Record("k1")
	require.True(t, ok)
	byID, ok := a.Record("/page/")
	require.True(t, ok)
	assert.Equal(t, byKey, byID)
	assert.Equal(t, "id", a.RefKey())
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		malformed bool
	}{
		{name: "object", raw: `{"id": "/a", "title": "A"}`},
		{name: "null fields", raw: `{"id": "/a", "description": null}`},
		{name: "array", raw: `[1, 2]`, malformed: true},
		{name: "string", raw: `"doc"`, malformed: true},
		{name: "numeric body", raw: `{"id": "/a", "body": 1}`, malformed: true},
		{name: "object id", raw: `{"id": {"x": 1}}`, malformed: true},
		{name: "empty", raw: ``, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord("ref", []byte(tt.raw))
			if tt.malformed {
				assert.ErrorIs(t, err, ErrMalformed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
