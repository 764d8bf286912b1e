package errors

import (
	"errors"
	"fmt"
)

// SiteSearchError carries a code plus what a user needs to act on it.
type SiteSearchError struct {
	Code     string
	Message  string
	Category Category
	Severity Severity
	// Details are logged as detail_<key> attributes.
	Details    map[string]string
	Cause      error
	Suggestion string
}

func (e *SiteSearchError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SiteSearchError) Unwrap() error { return e.Cause }

// Is matches any SiteSearchError with the same code, so the sentinels below
// work with errors.Is.
func (e *SiteSearchError) Is(target error) bool {
	t, ok := target.(*SiteSearchError)
	return ok && t.Code == e.Code
}

// WithDetail records key=value and returns e.
func (e *SiteSearchError) WithDetail(key, value string) *SiteSearchError {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets the hint shown under the CLI error and returns e.
func (e *SiteSearchError) WithSuggestion(suggestion string) *SiteSearchError {
	e.Suggestion = suggestion
	return e
}

// New builds an error whose category and severity follow from code.
func New(code, message string, cause error) *SiteSearchError {
	return &SiteSearchError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap codes err, reusing its text as the message. Wrap(code, nil) is nil.
func Wrap(code string, err error) *SiteSearchError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

var (
	ErrArtifactUnavailable  = &SiteSearchError{Code: ErrCodeArtifactUnavailable}
	ErrArtifactCorrupt      = &SiteSearchError{Code: ErrCodeArtifactCorrupt}
	ErrTokenizerUnavailable = &SiteSearchError{Code: ErrCodeTokenizerUnavailable}
	ErrDocumentMalformed    = &SiteSearchError{Code: ErrCodeDocumentMalformed}
)

func ConfigError(message string, cause error) *SiteSearchError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// UnavailableError is the terminal error for an index that could not be fetched.
func UnavailableError(message string, cause error) *SiteSearchError {
	return New(ErrCodeArtifactUnavailable, message, cause)
}

func ValidationError(message string, cause error) *SiteSearchError {
	return New(ErrCodeInvalidInput, message, cause)
}

func InternalError(message string, cause error) *SiteSearchError {
	return New(ErrCodeInternal, message, cause)
}

func as(err error) (*SiteSearchError, bool) {
	var se *SiteSearchError
	ok := errors.As(err, &se)
	return se, ok
}

// IsFatal reports whether err ends a search session.
func IsFatal(err error) bool {
	se, ok := as(err)
	return ok && se.Severity == SeverityFatal
}

// GetCode returns the code of the first SiteSearchError in err's chain, or "".
func GetCode(err error) string {
	if se, ok := as(err); ok {
		return se.Code
	}
	return ""
}

// GetCategory is GetCode for the category.
func GetCategory(err error) Category {
	if se, ok := as(err); ok {
		return se.Category
	}
	return ""
}
