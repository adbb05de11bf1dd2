package bitrix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tierField() FieldMeta {
	return FieldMeta{
		Type:  "enumeration",
		Title: "Tier",
		Items: []EnumOption{
			{ID: "5", Value: "Luxury"},
			{ID: "6", Value: "Standard"},
		},
	}
}

func TestTransformResolvesEnumeration(t *testing.T) {
	fields := Fields{"UF_CRM_1": tierField()}

	out := Transform(Item{"UF_CRM_1": "5"}, fields)
	assert.Equal(t, "Luxury", out["Tier"])

	// numeric raw values compare stringified against option IDs
	out = Transform(Item{"UF_CRM_1": float64(6)}, fields)
	assert.Equal(t, "Standard", out["Tier"])
}

func TestTransformEnumerationFallback(t *testing.T) {
	fields := Fields{"UF_CRM_1": tierField()}

	out := Transform(Item{"UF_CRM_1": "99"}, fields)
	assert.Equal(t, "99", out["Tier"], "unresolvable option keeps the raw value")

	out = Transform(Item{"UF_CRM_1": nil}, fields)
	assert.Nil(t, out["Tier"])
}

func TestTransformMultiValueEnumeration(t *testing.T) {
	fields := Fields{"UF_CRM_1": tierField()}

	out := Transform(Item{"UF_CRM_1": []any{"6", float64(5), "99"}}, fields)
	require.IsType(t, []any{}, out["Tier"])
	assert.Equal(t, []any{"Standard", "Luxury", "99"}, out["Tier"], "elements resolve independently, order preserved")
}

func TestTransformFileFields(t *testing.T) {
	fields := Fields{"UF_PHOTOS": {Type: "file", Title: "Photos"}}

	out := Transform(Item{"UF_PHOTOS": map[string]any{"url": "https://crm/a.jpg", "urlMachine": "https://crm/m.jpg"}}, fields)
	assert.Equal(t, "https://crm/a.jpg", out["Photos"])

	out = Transform(Item{"UF_PHOTOS": map[string]any{"urlMachine": "https://crm/m.jpg"}}, fields)
	assert.Equal(t, "https://crm/m.jpg", out["Photos"])

	out = Transform(Item{"UF_PHOTOS": []any{
		map[string]any{"url": "https://crm/1.jpg"},
		map[string]any{"urlMachine": "https://crm/2.jpg"},
	}}, fields)
	assert.Equal(t, []any{"https://crm/1.jpg", "https://crm/2.jpg"}, out["Photos"])

	// a file value with neither URL property passes through untouched
	raw := map[string]any{"id": float64(9)}
	out = Transform(Item{"UF_PHOTOS": raw}, fields)
	assert.Equal(t, raw, out["Photos"])
}

func TestTransformTitleFallsBackToFieldCode(t *testing.T) {
	fields := Fields{"UF_CRM_2": {Type: "string"}}
	out := Transform(Item{"UF_CRM_2": "hello"}, fields)
	assert.Equal(t, "hello", out["UF_CRM_2"])
}

func TestTransformPreservesEntryCount(t *testing.T) {
	fields := Fields{
		"UF_CRM_1":  tierField(),
		"UF_PHOTOS": {Type: "file", Title: "Photos"},
		"Size":      {Type: "string", Title: "Size"},
	}
	item := Item{
		"UF_CRM_1":  "5",
		"UF_PHOTOS": map[string]any{"url": "https://crm/a.jpg"},
		"Size":      "1200",
		"bedrooms":  float64(2), // no metadata: passes through unchanged
	}
	out := Transform(item, fields)
	assert.Len(t, out, len(item))
	assert.Equal(t, float64(2), out["bedrooms"])
}

func TestTransformSpecimenRecord(t *testing.T) {
	fields := Fields{"UF_CRM_1": tierField()}
	item := Item{"UF_CRM_1": "5", "Emirate": "Dubai", "Size": "1200", "bedrooms": float64(2)}

	out := Transform(item, fields)
	assert.Equal(t, map[string]any{
		"Tier":     "Luxury",
		"Emirate":  "Dubai",
		"Size":     "1200",
		"bedrooms": float64(2),
	}, out)
}

func TestFieldMetaUnmarshalMixedIDTypes(t *testing.T) {
	var fields Fields
	raw := `{"UF_CRM_1":{"type":"enumeration","title":"Tier","items":[{"ID":5,"VALUE":"Luxury"},{"ID":"6","VALUE":"Standard"}]}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &fields))

	out := Transform(Item{"UF_CRM_1": "5"}, fields)
	assert.Equal(t, "Luxury", out["Tier"], "numeric option IDs match string values")
}
