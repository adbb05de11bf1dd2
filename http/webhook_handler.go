package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/listing-bridge/bitrix"
	"github.com/yourorg/listing-bridge/internal/audit"
	"github.com/yourorg/listing-bridge/internal/media"
	"github.com/yourorg/listing-bridge/propertyfinder"
)

// CRMClient is the slice of the Bitrix client the webhook needs.
type CRMClient interface {
	GetFields(ctx context.Context, entityTypeID string) (bitrix.Fields, error)
	GetItem(ctx context.Context, entityTypeID, itemID string) (bitrix.Item, error)
}

// ListingsClient submits mapped payloads to the listing provider.
type ListingsClient interface {
	CreateListing(ctx context.Context, payload propertyfinder.ListingPayload) propertyfinder.SubmitResult
}

type WebhookDeps struct {
	CRM      CRMClient
	Listings ListingsClient // nil runs the webhook in transform-only mode
	Recorder *audit.Recorder
	Mirror   *media.Mirror
}

func RegisterWebhook(r chi.Router, d WebhookDeps) {
	r.Post("/webhook", func(w http.ResponseWriter, req *http.Request) {
		body, err := decodeWebhookBody(req)
		if err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_body", "detail": err.Error()})
			return
		}
		handleWebhook(w, req, d, body)
	})
}

func handleWebhook(w http.ResponseWriter, req *http.Request, d WebhookDeps, body map[string]any) {
	entityTypeID, itemID, err := parseDocumentRef(body)
	if err != nil {
		render.Status(req, http.StatusBadRequest)
		render.JSON(w, req, map[string]any{"error": "invalid_document_id", "detail": err.Error()})
		return
	}
	log.Printf("[INFO] webhook for entityTypeId=%s itemId=%s", entityTypeID, itemID)

	// Metadata and item are independent fetches; issue them together.
	var fields bitrix.Fields
	var item bitrix.Item
	g, ctx := errgroup.WithContext(req.Context())
	g.Go(func() error {
		var err error
		fields, err = d.CRM.GetFields(ctx, entityTypeID)
		return err
	})
	g.Go(func() error {
		var err error
		item, err = d.CRM.GetItem(ctx, entityTypeID, itemID)
		return err
	})
	if err := g.Wait(); err != nil {
		render.Status(req, http.StatusInternalServerError)
		render.JSON(w, req, map[string]any{"success": false, "error": "upstream_error", "detail": err.Error()})
		return
	}

	clean := bitrix.Transform(item, fields)

	if d.Listings == nil {
		render.JSON(w, req, map[string]any{"success": true, "data": clean})
		return
	}

	payload := propertyfinder.MapListingPayload(clean)
	mirrorMedia(req.Context(), d.Mirror, &payload)

	result := d.Listings.CreateListing(req.Context(), payload)

	if d.Recorder.Enabled() {
		payloadJSON, _ := json.Marshal(payload)
		response := result.Data
		if !result.Success {
			response = result.Error
		}
		d.Recorder.Record(req.Context(), audit.Entry{
			EntityTypeID: entityTypeID,
			ItemID:       itemID,
			Reference:    payload.Reference,
			Emirate:      payload.UAEEmirate,
			PayloadJSON:  payloadJSON,
			Success:      result.Success,
			ResponseJSON: response,
		})
	}

	if result.Success {
		render.JSON(w, req, map[string]any{
			"success":                true,
			"bitrixData":             clean,
			"propertyFinderPayload":  payload,
			"propertyFinderResponse": result.Data,
		})
		return
	}
	log.Printf("[WARN] listing submission failed for item %s (status %d)", itemID, result.Status)
	render.Status(req, http.StatusInternalServerError)
	render.JSON(w, req, map[string]any{
		"success":               false,
		"bitrixData":            clean,
		"propertyFinderPayload": payload,
		"error":                 result.Error,
	})
}

// decodeWebhookBody accepts JSON or form-encoded bodies; Bitrix automation
// rules send x-www-form-urlencoded, manual invocations tend to send JSON.
func decodeWebhookBody(req *http.Request) (map[string]any, error) {
	ct := req.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return nil, err
		}
		return body, nil
	}
	if err := req.ParseForm(); err != nil {
		return nil, err
	}
	body := make(map[string]any, len(req.PostForm))
	for key, vals := range req.PostForm {
		if len(vals) == 0 {
			continue
		}
		// Bitrix posts array fields as document_id[0], document_id[1], ...
		if strings.HasPrefix(key, "document_id[") {
			continue
		}
		if key == "document_id" && len(vals) > 1 {
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			body[key] = list
			continue
		}
		body[key] = vals[0]
	}
	if _, ok := body["document_id"]; !ok {
		if list := reindexForm(req.PostForm, "document_id"); len(list) > 0 {
			body["document_id"] = list
		}
	}
	return body, nil
}

// reindexForm reassembles document_id[0..n] form keys into an ordered list.
func reindexForm(form map[string][]string, prefix string) []any {
	var out []any
	for i := 0; ; i++ {
		vals, ok := form[fmt.Sprintf("%s[%d]", prefix, i)]
		if !ok || len(vals) == 0 {
			break
		}
		out = append(out, vals[0])
	}
	return out
}

// parseDocumentRef extracts the entity type and item ids from the webhook
// envelope. The usual form is a document_id whose third element looks like
// DYNAMIC_<entityTypeId>_<itemId>; a minimal form with explicit entityTypeId
// and id fields is also accepted.
func parseDocumentRef(body map[string]any) (entityTypeID, itemID string, err error) {
	raw, ok := body["document_id"]
	if !ok || raw == nil {
		et := bitrix.Stringify(body["entityTypeId"])
		id := bitrix.Stringify(body["id"])
		if et != "" && id != "" {
			return et, id, nil
		}
		return "", "", errors.New("document_id missing")
	}

	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []any:
		for _, e := range v {
			parts = append(parts, bitrix.Stringify(e))
		}
	case []string:
		parts = v
	default:
		return "", "", fmt.Errorf("document_id has unexpected type %T", raw)
	}
	if len(parts) < 3 {
		return "", "", fmt.Errorf("document_id has %d elements, want 3", len(parts))
	}

	dynamicID := strings.TrimSpace(parts[2])
	segs := strings.Split(dynamicID, "_")
	if len(segs) < 3 || segs[1] == "" || segs[2] == "" {
		return "", "", fmt.Errorf("document_id element %q is not of the form PREFIX_<entityTypeId>_<itemId>", dynamicID)
	}
	return segs[1], segs[2], nil
}

// mirrorMedia rewrites payload image URLs to their object-storage mirrors.
// With no mirror configured the payload keeps the CRM URLs.
func mirrorMedia(ctx context.Context, m *media.Mirror, payload *propertyfinder.ListingPayload) {
	if m == nil || payload.Media == nil || len(payload.Media.Images) == 0 {
		return
	}
	urls := make([]string, len(payload.Media.Images))
	for i, img := range payload.Media.Images {
		urls[i] = img.Original.URL
	}
	for i, u := range m.MirrorURLs(ctx, urls) {
		payload.Media.Images[i].Original.URL = u
	}
}
