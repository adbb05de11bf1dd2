package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client talks to a Bitrix24 inbound-webhook REST base, e.g.
// https://example.bitrix24.com/rest/17/<token>.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0 // upstream failures surface immediately, no retry policy
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL: baseURL,
		http:    rc,
		// Bitrix throttles REST calls at roughly 2 req/s per webhook token.
		limiter: rate.NewLimiter(2, 4),
	}
}

// GetFields fetches field metadata (labels, types, enum options) for an
// entity type via crm.item.fields.
func (c *Client) GetFields(ctx context.Context, entityTypeID string) (Fields, error) {
	var out struct {
		Result struct {
			Fields Fields `json:"fields"`
		} `json:"result"`
	}
	if err := c.call(ctx, "crm.item.fields", map[string]any{"entityTypeId": entityTypeID}, &out); err != nil {
		return nil, err
	}
	return out.Result.Fields, nil
}

// GetItem fetches one raw CRM record via crm.item.get.
func (c *Client) GetItem(ctx context.Context, entityTypeID, itemID string) (Item, error) {
	var out struct {
		Result struct {
			Item Item `json:"item"`
		} `json:"result"`
	}
	if err := c.call(ctx, "crm.item.get", map[string]any{"entityTypeId": entityTypeID, "id": itemID}, &out); err != nil {
		return nil, err
	}
	return out.Result.Item, nil
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil { return err }

	body, err := json.Marshal(params)
	if err != nil { return err }

	u := fmt.Sprintf("%s/%s.json", c.baseURL, method)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil { return err }
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil { return err }
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return fmt.Errorf("bitrix %s error %d: %v", method, resp.StatusCode, errBody)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
