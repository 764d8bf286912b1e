package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"

	// Language analyzers register themselves with the bleve registry.
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ar"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/da"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/de"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/es"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fa"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fi"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fr"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/hi"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/hu"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/it"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/nl"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/no"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/pt"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ro"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ru"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/sv"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/tr"
)

// GenericAnalyzerName tokenizes on unicode word boundaries and lowercases,
// with no stemming or stop words.
const GenericAnalyzerName = "generic"

// Language binds a language code to the analyzer used for its fields.
// Custom, when set, is a bleve custom analyzer definition added to each index
// mapping under the Analyzer name.
type Language struct {
	Code     string
	Analyzer string
	Custom   map[string]interface{}
}

// Generic is the language-independent analysis used by degraded indexes.
var Generic = Language{
	Code:     "",
	Analyzer: GenericAnalyzerName,
	Custom: map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	},
}

var (
	languagesMu sync.RWMutex
	languages   = map[string]Language{}
)

func init() {
	builtin := map[string]string{
		"ar": "ar", "da": "da", "de": "de", "en": "en", "es": "es",
		"fa": "fa", "fi": "fi", "fr": "fr", "hi": "hi", "hu": "hu",
		"it": "it", "nl": "nl", "pt": "pt", "ro": "ro", "ru": "ru",
		"sv": "sv", "tr": "tr",
		// Norwegian bokmål and nynorsk share the Norwegian analyzer.
		"no": "no", "nb": "no", "nn": "no",
		"zh": "cjk", "ko": "cjk",
	}
	for code, analyzer := range builtin {
		languages[code] = Language{Code: code, Analyzer: analyzer}
	}
	languages["ja"] = japanese
}

// RegisterLanguage makes a language available to primary index construction.
// Built-in analyzers must already be known to the bleve registry.
func RegisterLanguage(lang Language) error {
	code := strings.ToLower(strings.TrimSpace(lang.Code))
	if code == "" {
		return fmt.Errorf("language code is required")
	}
	if lang.Analyzer == "" {
		return fmt.Errorf("language %s: analyzer is required", code)
	}
	if lang.Custom == nil {
		if _, err := registry.NewCache().AnalyzerNamed(lang.Analyzer); err != nil {
			return fmt.Errorf("language %s: analyzer %q is not registered: %w", code, lang.Analyzer, err)
		}
	}
	lang.Code = code

	languagesMu.Lock()
	defer languagesMu.Unlock()
	languages[code] = lang
	return nil
}

// UnregisterLanguage removes a language from the registry.
func UnregisterLanguage(code string) {
	languagesMu.Lock()
	defer languagesMu.Unlock()
	delete(languages, strings.ToLower(code))
}

// LookupLanguage returns the registered language for code.
func LookupLanguage(code string) (Language, bool) {
	languagesMu.RLock()
	defer languagesMu.RUnlock()
	lang, ok := languages[strings.ToLower(code)]
	return lang, ok
}

// Languages returns the registered language codes in sorted order.
func Languages() []string {
	languagesMu.RLock()
	defer languagesMu.RUnlock()

	codes := make([]string, 0, len(languages))
	for code := range languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
