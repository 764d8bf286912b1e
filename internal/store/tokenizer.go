package store

import (
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

const (
	// KagomeTokenizerName is the bleve name of the Japanese morphological tokenizer.
	KagomeTokenizerName = "kagome_ja"

	// JapaneseAnalyzerName is the analyzer used for "ja" artifacts.
	JapaneseAnalyzerName = "ja_kagome"
)

var japanese = Language{
	Code:     "ja",
	Analyzer: JapaneseAnalyzerName,
	Custom: map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     KagomeTokenizerName,
		"token_filters": []string{lowercase.Name},
	},
}

func init() {
	_ = registry.RegisterTokenizer(KagomeTokenizerName, kagomeTokenizerConstructor)
}

// The IPA dictionary is large; it is loaded the first time a Japanese index is built.
var (
	kagomeOnce sync.Once
	kagomeTok  *tokenizer.Tokenizer
	kagomeErr  error
)

func kagomeTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	kagomeOnce.Do(func() {
		kagomeTok, kagomeErr = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	if kagomeErr != nil {
		return nil, kagomeErr
	}
	return &bleveKagomeTokenizer{tok: kagomeTok}, nil
}

// bleveKagomeTokenizer implements analysis.Tokenizer with kagome segmentation.
type bleveKagomeTokenizer struct {
	tok *tokenizer.Tokenizer
}

// Tokenize implements analysis.Tokenizer.
func (t *bleveKagomeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	words := t.tok.Wakati(text)

	result := make(analysis.TokenStream, 0, len(words))
	pos := 1
	offset := 0

	for _, word := range words {
		if strings.TrimFunc(word, isSeparator) == "" {
			continue
		}

		// Locate the surface form in the original text to report byte offsets.
		start := strings.Index(text[offset:], word)
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(word)
		if end > len(text) {
			end = len(text)
		}

		result = append(result, &analysis.Token{
			Term:     []byte(word),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     tokenType(word),
		})
		pos++
		offset = end
	}

	return result
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func tokenType(word string) analysis.TokenType {
	for _, r := range word {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return analysis.Ideographic
		}
	}
	return analysis.AlphaNumeric
}
