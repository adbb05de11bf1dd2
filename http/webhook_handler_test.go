package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/listing-bridge/bitrix"
	"github.com/yourorg/listing-bridge/propertyfinder"
)

type fakeCRM struct {
	fields     bitrix.Fields
	item       bitrix.Item
	err        error
	fieldCalls int
	itemCalls  int
}

func (f *fakeCRM) GetFields(_ context.Context, _ string) (bitrix.Fields, error) {
	f.fieldCalls++
	return f.fields, f.err
}

func (f *fakeCRM) GetItem(_ context.Context, _, _ string) (bitrix.Item, error) {
	f.itemCalls++
	return f.item, f.err
}

type fakeListings struct {
	result propertyfinder.SubmitResult
	got    *propertyfinder.ListingPayload
}

func (f *fakeListings) CreateListing(_ context.Context, p propertyfinder.ListingPayload) propertyfinder.SubmitResult {
	f.got = &p
	return f.result
}

func specimenCRM(t *testing.T) *fakeCRM {
	t.Helper()
	var fields bitrix.Fields
	require.NoError(t, json.Unmarshal([]byte(`{
		"UF_CRM_1": {"type":"enumeration","title":"Tier","items":[{"ID":"5","VALUE":"Luxury"}]}
	}`), &fields))
	return &fakeCRM{
		fields: fields,
		item:   bitrix.Item{"UF_CRM_1": "5", "Emirate": "Dubai", "Size": "1200", "bedrooms": float64(2)},
	}
}

func serveWebhook(d WebhookDeps, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	RegisterWebhook(r, d)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestParseDocumentRef(t *testing.T) {
	et, id, err := parseDocumentRef(map[string]any{"document_id": "a,b,DYNAMIC_1036_5"})
	require.NoError(t, err)
	assert.Equal(t, "1036", et)
	assert.Equal(t, "5", id)

	et, id, err = parseDocumentRef(map[string]any{"document_id": []any{"a", "b", "DYNAMIC_1036_5"}})
	require.NoError(t, err)
	assert.Equal(t, "1036", et)
	assert.Equal(t, "5", id)

	// minimal explicit form
	et, id, err = parseDocumentRef(map[string]any{"entityTypeId": float64(1036), "id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "1036", et)
	assert.Equal(t, "7", id)

	_, _, err = parseDocumentRef(map[string]any{})
	assert.Error(t, err)

	_, _, err = parseDocumentRef(map[string]any{"document_id": "a,b"})
	assert.Error(t, err)

	_, _, err = parseDocumentRef(map[string]any{"document_id": "a,b,NOUNDERSCORES"})
	assert.Error(t, err)
}

func TestWebhookMissingDocumentID(t *testing.T) {
	crm := specimenCRM(t)
	rec := serveWebhook(WebhookDeps{CRM: crm}, jsonRequest(t, `{}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, crm.fieldCalls, "no upstream call before validation")
	assert.Zero(t, crm.itemCalls)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_document_id", body["error"])
}

func TestWebhookTransformOnlyMode(t *testing.T) {
	crm := specimenCRM(t)
	rec := serveWebhook(WebhookDeps{CRM: crm}, jsonRequest(t, `{"document_id":"a,b,DYNAMIC_1036_5"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Luxury", body.Data["Tier"])
	assert.Equal(t, 1, crm.fieldCalls)
	assert.Equal(t, 1, crm.itemCalls)
}

func TestWebhookSubmitSuccess(t *testing.T) {
	crm := specimenCRM(t)
	listings := &fakeListings{result: propertyfinder.SubmitResult{
		Success: true,
		Status:  http.StatusCreated,
		Data:    json.RawMessage(`{"id":"L-1"}`),
	}}
	rec := serveWebhook(WebhookDeps{CRM: crm, Listings: listings},
		jsonRequest(t, `{"document_id":"a,b,DYNAMIC_1036_5"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, listings.got)
	assert.Equal(t, "dubai", listings.got.UAEEmirate)
	assert.Equal(t, 1200, listings.got.Size)
	assert.Equal(t, "2", listings.got.Bedrooms)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body, "bitrixData")
	assert.Contains(t, body, "propertyFinderPayload")
	assert.Contains(t, body, "propertyFinderResponse")
}

func TestWebhookSubmitFailureKeepsArtifacts(t *testing.T) {
	crm := specimenCRM(t)
	listings := &fakeListings{result: propertyfinder.SubmitResult{
		Success: false,
		Status:  http.StatusUnprocessableEntity,
		Error:   json.RawMessage(`{"errors":[{"field":"size"}]}`),
	}}
	rec := serveWebhook(WebhookDeps{CRM: crm, Listings: listings},
		jsonRequest(t, `{"document_id":"a,b,DYNAMIC_1036_5"}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body, "bitrixData", "intermediate artifacts survive a submission failure")
	assert.Contains(t, body, "propertyFinderPayload")
	assert.Contains(t, body, "error")
}

func TestWebhookUpstreamFailure(t *testing.T) {
	crm := &fakeCRM{err: errors.New("bitrix down")}
	rec := serveWebhook(WebhookDeps{CRM: crm}, jsonRequest(t, `{"document_id":"a,b,DYNAMIC_1036_5"}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "upstream_error", body["error"])
}

func TestWebhookFormEncodedBody(t *testing.T) {
	crm := specimenCRM(t)

	form := url.Values{"document_id": {"a,b,DYNAMIC_1036_5"}}
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serveWebhook(WebhookDeps{CRM: crm}, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// indexed array style: document_id[0]=...&document_id[1]=...
	crm = specimenCRM(t)
	form = url.Values{
		"document_id[0]": {"a"},
		"document_id[1]": {"b"},
		"document_id[2]": {"DYNAMIC_1036_5"},
	}
	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serveWebhook(WebhookDeps{CRM: crm}, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, crm.itemCalls)
}
