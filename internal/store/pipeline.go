package store

import (
	"fmt"
	"strings"
)

// pipelineFunctions are the token pipeline stages an artifact may name,
// with or without a "-{lang}" suffix.
var pipelineFunctions = map[string]struct{}{
	"trimmer":        {},
	"stopWordFilter": {},
	"stemmer":        {},
}

// defaultPipelineLanguage is the language of unsuffixed stemmer/stop-word stages.
const defaultPipelineLanguage = "en"

// UnavailableError reports pipeline stages the runtime cannot reproduce.
type UnavailableError struct {
	Function string
	Language string
}

func (e *UnavailableError) Error() string {
	if e.Language == "" {
		return fmt.Sprintf("pipeline function %q is not registered", e.Function)
	}
	return fmt.Sprintf("pipeline function %q needs language %q, which has no registered analyzer", e.Function, e.Language)
}

// ResolvePipeline maps an artifact's token pipeline to a registered language.
// A pipeline without language-bearing stages resolves to Generic. Every stage must name a known
// function, and all language-suffixed stages must agree on one registered
// language; otherwise an *UnavailableError is returned.
func ResolvePipeline(pipeline []string) (Language, error) {
	if len(pipeline) == 0 {
		return Generic, nil
	}

	code := ""
	for _, label := range pipeline {
		name, lang := splitPipelineLabel(label)
		if _, ok := pipelineFunctions[name]; !ok {
			return Language{}, &UnavailableError{Function: label}
		}
		if lang == "" {
			if name == "trimmer" {
				// The unsuffixed trimmer only strips non-word characters.
				continue
			}
			lang = defaultPipelineLanguage
		}
		if code != "" && code != lang {
			return Language{}, &UnavailableError{Function: label, Language: lang}
		}
		code = lang
	}

	if code == "" {
		return Generic, nil
	}
	lang, ok := LookupLanguage(code)
	if !ok {
		return Language{}, &UnavailableError{Function: pipeline[0], Language: code}
	}
	return lang, nil
}

func splitPipelineLabel(label string) (name, lang string) {
	label = strings.TrimSpace(label)
	if i := strings.LastIndex(label, "-"); i > 0 {
		return label[:i], strings.ToLower(label[i+1:])
	}
	return label, ""
}
