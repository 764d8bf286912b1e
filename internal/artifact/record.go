package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed marks a document record that is not usable.
var ErrMalformed = errors.New("malformed document")

// textFields must be strings (or null) when present.
var textFields = []string{FieldID, FieldTitle, FieldDescription, FieldBody}

// DecodeRecord decodes one raw document. The document must be a JSON object
// and its id, title, description and body properties must be strings or null.
// Other non-string properties are ignored.
func DecodeRecord(ref string, raw json.RawMessage) (Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{}, fmt.Errorf("%w %s: not an object", ErrMalformed, ref)
	}

	var props map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &props); err != nil {
		return Record{}, fmt.Errorf("%w %s: %v", ErrMalformed, ref, err)
	}

	rec := Record{Ref: ref, Fields: make(map[string]string, len(props))}
	for key, value := range props {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			if isTextField(key) {
				return Record{}, fmt.Errorf("%w %s: field %q is not a string", ErrMalformed, ref, key)
			}
			continue
		}
		rec.Fields[key] = s
	}

	rec.ID = rec.Fields[FieldID]
	rec.Title = rec.Fields[FieldTitle]
	rec.Description = rec.Fields[FieldDescription]
	rec.Body = rec.Fields[FieldBody]
	return rec, nil
}

func isTextField(key string) bool {
	for _, f := range textFields {
		if f == key {
			return true
		}
	}
	return false
}
