package bitrix

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Transform rewrites a raw CRM record into its human-readable form: field
// codes become display titles, enumeration values become option labels, file
// objects become their URLs. Fields with no metadata pass through untouched.
// It never fails; anything it cannot resolve keeps its raw value, and the
// output always has exactly one entry per input entry.
func Transform(item Item, fields Fields) map[string]any {
	out := make(map[string]any, len(item))
	for key, value := range item {
		meta, ok := fields[key]
		if !ok {
			out[key] = value
			continue
		}
		label := meta.Title
		if label == "" {
			label = key
		}
		switch meta.Type {
		case "enumeration":
			out[label] = mapEach(value, func(v any) any { return resolveOption(v, meta.Items) })
		case "file":
			out[label] = mapEach(value, fileURL)
		default:
			out[label] = value
		}
	}
	return out
}

// mapEach applies fn to a scalar, or to every element of a multi-value field,
// preserving order.
func mapEach(value any, fn func(any) any) any {
	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		for i, v := range list {
			out[i] = fn(v)
		}
		return out
	}
	return fn(value)
}

// resolveOption substitutes an enum value with its option label. Option IDs
// and raw values are compared stringified because the CRM mixes numeric and
// string representations of the same ID. No match keeps the raw value.
func resolveOption(value any, items []EnumOption) any {
	want := Stringify(value)
	for _, opt := range items {
		if string(opt.ID) == want {
			return opt.Value
		}
	}
	return value
}

// fileURL extracts the download URL from a file-reference object, preferring
// the user-facing url over urlMachine. Anything else passes through as-is.
func fileURL(value any) any {
	obj, ok := value.(map[string]any)
	if !ok {
		return value
	}
	if u, ok := obj["url"].(string); ok && u != "" {
		return u
	}
	if u, ok := obj["urlMachine"].(string); ok && u != "" {
		return u
	}
	return value
}

// Stringify renders a raw JSON-decoded value in the textual form used for
// loose comparisons. Whole floats print without a decimal point so that
// numeric 5 and string "5" compare equal.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
