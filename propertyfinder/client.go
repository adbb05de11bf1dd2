package propertyfinder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// tokenExpiryBuffer is subtracted from the reported token lifetime so we
// never present a token that is about to lapse mid-request.
const tokenExpiryBuffer = 60 * time.Second

// Client talks to the PropertyFinder Atlas API: credential exchange plus
// authenticated listing creation.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *retryablehttp.Client
	tokens    TokenCache

	// now is swappable in tests
	now func() time.Time
}

func NewClient(baseURL, apiKey, apiSecret string, tokens TokenCache) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil

	if tokens == nil {
		tokens = NewMemoryTokenCache()
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      rc,
		tokens:    tokens,
		now:       time.Now,
	}
}

// AccessToken returns a cached token while it is still inside its validity
// window, otherwise exchanges the API credentials for a fresh one.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if tok, ok := c.tokens.Get(ctx); ok && tok.valid(c.now()) {
		return tok.Value, nil
	}

	body, err := json.Marshal(map[string]string{"apiKey": c.apiKey, "apiSecret": c.apiSecret})
	if err != nil { return "", err }
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", bytes.NewReader(body))
	if err != nil { return "", err }
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil { return "", err }
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return "", fmt.Errorf("auth token error %d: %v", resp.StatusCode, errBody)
	}

	var out struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil { return "", err }
	if out.AccessToken == "" {
		return "", fmt.Errorf("auth token response missing accessToken")
	}

	tok := Token{
		Value:     out.AccessToken,
		ExpiresAt: c.now().Add(time.Duration(out.ExpiresIn)*time.Second - tokenExpiryBuffer),
	}
	c.tokens.Put(ctx, tok)
	return tok.Value, nil
}

// CreateListing submits a mapped payload. Failures come back as a tagged
// result rather than an error so callers can report them next to the
// artifacts computed earlier in the request.
func (c *Client) CreateListing(ctx context.Context, payload ListingPayload) SubmitResult {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return failure(0, nil, err.Error())
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failure(0, nil, err.Error())
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/listings", bytes.NewReader(body))
	if err != nil {
		return failure(0, nil, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return failure(0, nil, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20)) // 4MB guard
	if err != nil {
		return failure(resp.StatusCode, nil, err.Error())
	}
	if resp.StatusCode >= 400 {
		return failure(resp.StatusCode, respBody, "")
	}

	res := SubmitResult{Success: true, Status: resp.StatusCode}
	if json.Valid(respBody) {
		res.Data = respBody
	} else {
		res.Data, _ = json.Marshal(string(respBody))
	}
	return res
}
