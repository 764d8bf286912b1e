// Package errors defines the coded errors sitesearch reports.
//
// Codes read ERR_NNN_NAME. The hundreds digit is the category: 1 config,
// 2 artifact (reading, decoding, building the index), 3 network,
// 4 validation and 5 internal.
package errors

// Category groups codes by their hundreds digit.
type Category string

const (
	CategoryConfig     Category = "CONFIG"
	CategoryArtifact   Category = "ARTIFACT"
	CategoryNetwork    Category = "NETWORK"
	CategoryValidation Category = "VALIDATION"
	CategoryInternal   Category = "INTERNAL"
)

// Severity says what the error means for a search session.
type Severity string

const (
	// SeverityFatal ends the session. Search stays unavailable.
	SeverityFatal Severity = "FATAL"
	// SeverityError fails one operation.
	SeverityError Severity = "ERROR"
	// SeverityWarning means search continues in a degraded way.
	SeverityWarning Severity = "WARNING"
)

const (
	ErrCodeConfigInvalid = "ERR_102_CONFIG_INVALID"

	ErrCodeFileNotFound         = "ERR_201_FILE_NOT_FOUND"
	ErrCodeArtifactTooLarge     = "ERR_204_ARTIFACT_TOO_LARGE"
	ErrCodeArtifactCorrupt      = "ERR_206_ARTIFACT_CORRUPT"
	ErrCodeTokenizerUnavailable = "ERR_207_TOKENIZER_UNAVAILABLE"
	ErrCodeDocumentMalformed    = "ERR_208_DOCUMENT_MALFORMED"
	ErrCodePageUnreadable       = "ERR_209_PAGE_UNREADABLE"

	ErrCodeNetworkTimeout      = "ERR_301_NETWORK_TIMEOUT"
	ErrCodeArtifactUnavailable = "ERR_302_ARTIFACT_UNAVAILABLE"

	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty   = "ERR_404_QUERY_EMPTY"
	ErrCodeInvalidPath  = "ERR_406_INVALID_PATH"

	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_505_INDEX_FAILED"
)

var categories = map[byte]Category{
	'1': CategoryConfig,
	'2': CategoryArtifact,
	'3': CategoryNetwork,
	'4': CategoryValidation,
}

func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	if c, ok := categories[code[4]]; ok {
		return c
	}
	return CategoryInternal
}

func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeArtifactUnavailable, ErrCodeArtifactCorrupt, ErrCodeArtifactTooLarge, ErrCodeNetworkTimeout:
		// The artifact is fetched once per session.
		return SeverityFatal
	case ErrCodeTokenizerUnavailable, ErrCodeDocumentMalformed:
		return SeverityWarning
	}
	return SeverityError
}
