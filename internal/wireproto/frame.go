// Package wireproto implements the newline-delimited JSON framing shared by
// the game server's TCP protocol and the bridge's session pool.
package wireproto

import "encoding/json"

// Frame is a decoded inbound message. Fields are read dynamically since the
// wire protocol is a single flat namespace of message types, each with its
// own optional fields (see spec §4.3).
type Frame struct {
	Type string
	raw  map[string]any
}

// ParseFrame decodes a single JSON object frame.
func ParseFrame(data []byte) (*Frame, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	t, _ := raw["type"].(string)
	return &Frame{Type: t, raw: raw}, nil
}

// String returns the named field as a string, or "" if absent or not a string.
func (f *Frame) String(key string) string {
	s, _ := f.raw[key].(string)
	return s
}

// StringOr returns the named field as a string, falling back to def.
func (f *Frame) StringOr(key, def string) string {
	if s, ok := f.raw[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Has reports whether key is present in the frame at all.
func (f *Frame) Has(key string) bool {
	_, ok := f.raw[key]
	return ok
}

// Bool coerces the named field using the ANSWER.correct rule: true,
// "true", 1, "1" (numeric or string) are all truthy.
func (f *Frame) Bool(key string) bool {
	switch v := f.raw[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	case float64:
		return v == 1
	default:
		return false
	}
}

// Truthy coerces the named field using plain JSON truthiness, as spec §4.3
// requires for answerTrue: any non-zero number, non-empty string, true
// bool, or present non-nil value is truthy.
func (f *Frame) Truthy(key string) bool {
	switch v := f.raw[key].(type) {
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case nil:
		return false
	default:
		return v != nil
	}
}

// Int returns the named field as an int, and whether it was present and numeric.
func (f *Frame) Int(key string) (int, bool) {
	v, ok := f.raw[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// Get returns the raw decoded value for key.
func (f *Frame) Get(key string) any {
	return f.raw[key]
}
