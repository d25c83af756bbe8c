// Package report fetches audit reports from the finance backend. The
// attestation pipeline consumes exactly one endpoint: fetch audit report by
// id, which yields the plaintext JSON input to the encryption step.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrReportNotFound is returned when the backend has no report for the id.
var ErrReportNotFound = errors.New("report: not found")

// Client fetches audit reports from the backend REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a report client for the given backend base URL. apiKey is
// optional; when set it is sent as a bearer token.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// GetReport fetches the audit report for auditID. The raw response body is
// kept verbatim on Report.Raw so the attested plaintext matches what the
// backend produced byte for byte.
func (c *Client) GetReport(ctx context.Context, auditID string) (*Report, error) {
	if strings.TrimSpace(auditID) == "" {
		return nil, fmt.Errorf("report: audit id must not be empty")
	}
	u := c.baseURL + "/api/audit/" + url.PathEscape(auditID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, auditID)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("report: fetch failed status=%d body=%s", resp.StatusCode, string(b))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("report: read body: %w", err)
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("report: decode: %w", err)
	}
	r.Raw = raw
	if r.AuditID == "" {
		r.AuditID = auditID
	}
	return &r, nil
}
