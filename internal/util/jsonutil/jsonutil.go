package jsonutil

import (
	"bytes"
	"encoding/json"
)

// MarshalNoEscape encodes v into JSON without escaping <, >, & into <, etc.
// Used when embedding JSON into model prompts, where escape noise hurts.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// StripFences removes a surrounding markdown code fence (``` or ```json)
// that models sometimes wrap around JSON output. Input without a fence is
// returned trimmed but otherwise untouched.
func StripFences(raw []byte) []byte {
	s := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(s, []byte("```")) {
		return s
	}
	s = bytes.TrimPrefix(s, []byte("```"))
	if i := bytes.IndexByte(s, '\n'); i >= 0 {
		// drop the info string ("json", ...) on the opening fence line
		s = s[i+1:]
	}
	if i := bytes.LastIndex(s, []byte("```")); i >= 0 {
		s = s[:i]
	}
	return bytes.TrimSpace(s)
}

// DecodeObject strips fences and unmarshals a single JSON object into v.
// Output that arrives double-encoded (the object quoted as a JSON string)
// is unwrapped before the final decode.
func DecodeObject(raw []byte, v any) error {
	s := StripFences(raw)
	err := json.Unmarshal(s, v)
	if err == nil {
		return nil
	}
	norm, nerr := normalize(s)
	if nerr != nil {
		return err
	}
	return json.Unmarshal(norm, v)
}

// normalize unwraps up to two levels of string quoting around a JSON
// document and re-encodes it without HTML escapes.
func normalize(raw []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for i := 0; i < 2; i++ {
		s, ok := doc.(string)
		if !ok {
			break
		}
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			return nil, err
		}
	}
	return MarshalNoEscape(doc)
}
