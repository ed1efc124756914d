package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrJSONPathNotFound is returned when the path does not exist in the document
	ErrJSONPathNotFound = errors.New("JSON path not found in response")
	// ErrInvalidJSONPath is returned when the path syntax is invalid
	ErrInvalidJSONPath = errors.New("invalid JSON path syntax")
)

// pathSegment is one field name or array index of a JSON path
type pathSegment struct {
	field string
	index int
	isIdx bool
}

// parseJSONPath splits a path like "data.last_month" or "items[0].count"
func parseJSONPath(path string) ([]pathSegment, error) {
	var segments []pathSegment
	for _, part := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(part, "[")
		if name == "" && len(segments) == 0 {
			return nil, fmt.Errorf("%w: empty field name in %q", ErrInvalidJSONPath, path)
		}
		if name != "" {
			segments = append(segments, pathSegment{field: name})
		}
		for rest != "" {
			idx, after, ok := strings.Cut(rest, "]")
			if !ok {
				return nil, fmt.Errorf("%w: unclosed bracket in %q", ErrInvalidJSONPath, path)
			}
			n, err := strconv.Atoi(idx)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: invalid array index %q", ErrInvalidJSONPath, idx)
			}
			segments = append(segments, pathSegment{index: n, isIdx: true})
			rest = strings.TrimPrefix(after, "[")
		}
	}
	return segments, nil
}

// lookupJSON walks decoded JSON along path
func lookupJSON(data interface{}, path string) (interface{}, error) {
	segments, err := parseJSONPath(path)
	if err != nil {
		return nil, err
	}
	current := data
	for _, seg := range segments {
		if seg.isIdx {
			arr, ok := current.([]interface{})
			if !ok || seg.index >= len(arr) {
				return nil, fmt.Errorf("%w: index %d", ErrJSONPathNotFound, seg.index)
			}
			current = arr[seg.index]
			continue
		}
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: expected object at %q", ErrJSONPathNotFound, seg.field)
		}
		if current, ok = obj[seg.field]; !ok {
			return nil, fmt.Errorf("%w: field %q not found", ErrJSONPathNotFound, seg.field)
		}
	}
	return current, nil
}

// JSONInt extracts an integer at path from a JSON document
func JSONInt(content []byte, path string) (int, error) {
	var data interface{}
	if err := json.Unmarshal(content, &data); err != nil {
		return 0, fmt.Errorf("failed to parse JSON: %w", err)
	}
	value, err := lookupJSON(data, path)
	if err != nil {
		return 0, err
	}
	switch v := value.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrJSONPathNotFound, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: value at %q is not a number", ErrJSONPathNotFound, path)
	}
}
