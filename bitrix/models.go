package bitrix

import (
	"encoding/json"
)

// stringNumber accepts string or number JSON and stores as string. Bitrix is
// inconsistent about whether enum option IDs (and some scalar values) arrive
// as numbers or strings, so everything is compared in textual form.
type stringNumber string

func (s *stringNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil { return err }
		*s = stringNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil { return err }
	*s = stringNumber(num.String())
	return nil
}

// EnumOption is one legal value of an enumeration field.
type EnumOption struct {
	ID    stringNumber `json:"ID"`
	Value string       `json:"VALUE"`
}

// FieldMeta describes one CRM field: its wire type, display title and, for
// enumeration fields, the ordered option list.
type FieldMeta struct {
	Type       string       `json:"type"`
	Title      string       `json:"title"`
	IsMultiple bool         `json:"isMultiple"`
	Items      []EnumOption `json:"items"`
}

// Item is a raw CRM record: field code -> raw value. Values are whatever the
// REST API returned (scalar, list, file object, null).
type Item map[string]any

// Fields maps field code -> metadata for one entity type.
type Fields map[string]FieldMeta
