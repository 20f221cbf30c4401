package policy

import (
	"encoding/json"
)

// decodeWithExtra unmarshals data into v and returns every top-level field
// that is not in the known list. Absent fields simply leave their zero
// values behind; only malformed JSON is an error.
func decodeWithExtra(data []byte, v any, known []string) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// encodeWithExtra marshals v and merges the extra fields back into the
// object. Typed fields win over a stale extra of the same name.
func encodeWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, exists := merged[k]; !exists {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}
