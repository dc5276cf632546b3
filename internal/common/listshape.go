package common

import (
	"bytes"
	"encoding/json"
)

var emptyList = []byte("[]")

// NormalizeList turns a list-endpoint response into a bare JSON array.
//
// The backend is inconsistent about wrapping list results, so:
//   - a JSON array is returned unchanged;
//   - an object whose "data" field is an array yields that array;
//   - anything else (objects without data, null, scalars) yields [].
//
// raw must already be valid JSON.
func NormalizeList(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if isArray(trimmed) {
		return trimmed
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return emptyList
	}
	data := bytes.TrimSpace(wrapper.Data)
	if isArray(data) {
		return data
	}
	return emptyList
}

func isArray(b []byte) bool {
	return len(b) > 0 && b[0] == '['
}
