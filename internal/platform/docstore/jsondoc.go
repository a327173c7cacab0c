package docstore

import (
	"encoding/json"
	"fmt"
)

// Helpers shared by the backends that keep documents as JSON objects
// (memory and SQL).

func toMap(doc any) (map[string]any, error) {
	switch d := doc.(type) {
	case map[string]any:
		return cloneMap(d)
	case Filter:
		return cloneMap(map[string]any(d))
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("docstore: document must encode to a JSON object: %w", err)
	}
	return m, nil
}

func cloneMap(in map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

func matches(doc map[string]any, filter Filter) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if normalizeValue(got) != want {
			return false
		}
	}
	return true
}

func project(doc map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return doc
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}

func decodeInto(docs []map[string]any, out any) error {
	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("docstore: encode result: %w", err)
	}
	return decodeRaw(raw, out)
}

func decodeOne(doc map[string]any, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: encode result: %w", err)
	}
	return decodeRaw(raw, out)
}

func decodeRaw(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("docstore: decode result: %w", err)
	}
	return nil
}
