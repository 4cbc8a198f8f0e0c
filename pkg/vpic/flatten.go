package vpic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	resultsKey  = "Results"
	variableKey = "Variable"
	valueKey    = "Value"
)

// Flatten turns {"Results":[{"Variable":V,"Value":X},...]} into {V: X}.
// A repeated variable keeps its last value; null values become "".
func Flatten(body []byte) (map[string]string, error) {
	var results []map[string]json.RawMessage
	if err := decodeResults(body, &results); err != nil {
		return nil, err
	}
	return FlattenResults(results)
}

// FlattenResults flattens already decoded result elements.
func FlattenResults(results []map[string]json.RawMessage) (map[string]string, error) {
	out := make(map[string]string, len(results))
	for i, elem := range results {
		rawVar, ok := elem[variableKey]
		if !ok {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("result %d has no %s", i, variableKey)}
		}
		rawVal, ok := elem[valueKey]
		if !ok {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("result %d has no %s", i, valueKey)}
		}

		var name string
		if err := json.Unmarshal(rawVar, &name); err != nil {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("result %d %s is not a string", i, variableKey)}
		}
		val, err := scalarString(rawVal)
		if err != nil {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("result %d %s: %v", i, valueKey, err)}
		}
		out[name] = val
	}
	return out, nil
}

// DecodeBatchResults decodes the flat result rows returned by DecodeVinValues and
// DecodeVINValuesBatch. Every scalar is rendered as a string.
func DecodeBatchResults(body []byte) ([]map[string]string, error) {
	var results []map[string]json.RawMessage
	if err := decodeResults(body, &results); err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(results))
	for i, elem := range results {
		row := make(map[string]string, len(elem))
		for k, raw := range elem {
			val, err := scalarString(raw)
			if err != nil {
				return nil, &MalformedResponseError{Reason: fmt.Sprintf("result %d field %s: %v", i, k, err)}
			}
			row[k] = val
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeResults(body []byte, dst *[]map[string]json.RawMessage) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &MalformedResponseError{Reason: fmt.Sprintf("decode body: %v", err)}
	}
	raw, ok := envelope[resultsKey]
	if !ok {
		return &MalformedResponseError{Reason: "missing " + resultsKey}
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return &MalformedResponseError{Reason: resultsKey + " is null"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &MalformedResponseError{Reason: resultsKey + " is not a list of objects"}
	}
	return nil
}

func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("expected a scalar, got %s", raw)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	default:
		// numbers keep their literal text
		return string(raw), nil
	}
}
