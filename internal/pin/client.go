// Package pin uploads opaque payloads to a content-addressed pinning service
// and fetches them back by locator. Uploads are idempotent: identical content
// pins to the same CID, so retrying a failed flow re-yields the same locator.
package pin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://api.pinata.cloud"
	defaultGatewayURL = "https://gateway.pinata.cloud"
	defaultTimeout    = 30 * time.Second

	// LocatorScheme prefixes every locator returned by UploadJSON.
	LocatorScheme = "ipfs://"
)

var (
	// ErrNotFound is returned when the gateway has no content for a locator.
	ErrNotFound = errors.New("pin: content not found")
	// ErrBadLocator is returned for locators this client did not produce.
	ErrBadLocator = errors.New("pin: malformed locator")
)

// Client talks to a Pinata-compatible pinning API. The zero value is not
// usable; construct with NewClient.
type Client struct {
	apiKey     string
	baseURL    string
	gatewayURL string
	httpClient *http.Client
}

// NewClient returns a pinning client authenticated with the given API JWT.
// baseURL and gatewayURL fall back to the public Pinata endpoints when empty.
func NewClient(apiKey, baseURL, gatewayURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if gatewayURL == "" {
		gatewayURL = defaultGatewayURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		gatewayURL: strings.TrimSuffix(gatewayURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type pinRequest struct {
	PinataContent  any            `json:"pinataContent"`
	PinataMetadata map[string]any `json:"pinataMetadata,omitempty"`
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// UploadJSON pins v as JSON under the given pin name and returns its locator
// (ipfs://<cid>). No retries; failures surface to the caller.
func (c *Client) UploadJSON(ctx context.Context, v any, name string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("pin: API key not configured")
	}
	body := pinRequest{PinataContent: v}
	if name != "" {
		body.PinataMetadata = map[string]any{"name": name}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("pin: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin: upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("pin: upload failed status=%d body=%s", resp.StatusCode, string(b))
	}

	var out pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("pin: decode response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pin: upload response missing IpfsHash")
	}
	return LocatorScheme + out.IpfsHash, nil
}

// Fetch retrieves the raw bytes stored under locator via the gateway.
// Not-found and transport failures surface as errors; the caller decides
// whether a failure is fatal or skippable (batch traversal skips).
func (c *Client) Fetch(ctx context.Context, locator string) ([]byte, error) {
	cid, err := CID(locator)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gatewayURL+"/ipfs/"+cid, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pin: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pin: fetch failed status=%d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FetchCiphertext fetches a locator and unwraps the provider envelope down to
// the ciphertext string originally uploaded.
func (c *Client) FetchCiphertext(ctx context.Context, locator string) (string, error) {
	raw, err := c.Fetch(ctx, locator)
	if err != nil {
		return "", err
	}
	env := Unwrap(raw)
	return string(env.Content), nil
}

// CID extracts the content id from an ipfs:// locator.
func CID(locator string) (string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(locator), LocatorScheme)
	if !ok || rest == "" || strings.ContainsAny(rest, "/?#") {
		return "", fmt.Errorf("%w: %q", ErrBadLocator, locator)
	}
	return rest, nil
}
