package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePipeline(t *testing.T) {
	tests := []struct {
		name     string
		pipeline []string
		analyzer string
	}{
		{name: "empty", pipeline: nil, analyzer: GenericAnalyzerName},
		{name: "trimmer only", pipeline: []string{"trimmer"}, analyzer: GenericAnalyzerName},
		{name: "default english", pipeline: []string{"trimmer", "stopWordFilter", "stemmer"}, analyzer: "en"},
		{name: "norwegian", pipeline: []string{"trimmer-no", "stopWordFilter-no", "stemmer-no"}, analyzer: "no"},
		{name: "bokmal alias", pipeline: []string{"stemmer-nb"}, analyzer: "no"},
		{name: "unsuffixed trimmer with german", pipeline: []string{"trimmer", "stemmer-de"}, analyzer: "de"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, err := ResolvePipeline(tt.pipeline)
			require.NoError(t, err)
			assert.Equal(t, tt.analyzer, lang.Analyzer)
		})
	}
}

func TestResolvePipeline_Unavailable(t *testing.T) {
	tests := []struct {
		name     string
		pipeline []string
	}{
		{name: "unregistered language", pipeline: []string{"trimmer-xx", "stemmer-xx"}},
		{name: "unknown function", pipeline: []string{"lemmatizer"}},
		{name: "mixed languages", pipeline: []string{"stemmer-no", "stemmer-de"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolvePipeline(tt.pipeline)
			require.Error(t, err)
			var unavailable *UnavailableError
			assert.True(t, errors.As(err, &unavailable))
		})
	}
}

func TestRegisterLanguage(t *testing.T) {
	// Given: a language code nobody registered
	_, ok := LookupLanguage("xx")
	require.False(t, ok)
	t.Cleanup(func() { UnregisterLanguage("xx") })

	// When: registering it with a built-in analyzer
	err := RegisterLanguage(Language{Code: "XX", Analyzer: "en"})
	require.NoError(t, err)

	// Then: pipelines naming it resolve
	lang, err := ResolvePipeline([]string{"stemmer-xx"})
	require.NoError(t, err)
	assert.Equal(t, "en", lang.Analyzer)
	assert.Contains(t, Languages(), "xx")
}

func TestRegisterLanguage_RejectsUnknownAnalyzer(t *testing.T) {
	err := RegisterLanguage(Language{Code: "yy", Analyzer: "no-such-analyzer"})
	assert.Error(t, err)

	err = RegisterLanguage(Language{Analyzer: "en"})
	assert.Error(t, err)
}
