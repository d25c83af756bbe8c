// Package loki pushes attestation event lines to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const jobLabel = "attest-ledger"

// PushRequest is the body of the Loki push API (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream carries one label set and its entries, each [timestamp_ns, line].
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// Loki label values tolerate most characters but label cardinality tooling
// does not; anything outside this set is folded to underscore.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:]`)

type eventFields struct {
	AuditID   string `json:"auditId"`
	EventType string `json:"eventType"`
	Source    string `json:"source"`
	CreatedAt string `json:"createdAt"`
}

// PushEventJSON indexes an attestation event (the Kafka message value) into
// Loki, labelling the stream by audit id, event type, and source. A line that
// does not parse as an event is still pushed, with the current time and only
// the job label, so malformed events are not dropped silently.
func PushEventJSON(ctx context.Context, baseURL string, rawJSON []byte) error {
	ts := time.Now().UTC()
	labels := map[string]string{}

	var ev eventFields
	if json.Unmarshal(rawJSON, &ev) == nil {
		for k, v := range map[string]string{
			"audit_id":   ev.AuditID,
			"event_type": ev.EventType,
			"source":     ev.Source,
		} {
			if v != "" {
				labels[k] = v
			}
		}
		if t, ok := parseEventTime(ev.CreatedAt); ok {
			ts = t
		}
	}
	return PushEvent(ctx, baseURL, ts, string(rawJSON), labels)
}

func parseEventTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PushEvent sends one log line to the Loki push endpoint under baseURL.
// The job label is always set; caller labels are sanitized and merged in.
func PushEvent(ctx context.Context, baseURL string, timestamp time.Time, line string, labels map[string]string) error {
	if baseURL == "" {
		return fmt.Errorf("loki: base URL is empty")
	}

	stream := make(map[string]string, len(labels)+1)
	stream["job"] = jobLabel
	for k, v := range labels {
		if s := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_"); s != "" {
			stream[k] = s
		}
	}

	payload, err := json.Marshal(PushRequest{Streams: []Stream{{
		Stream: stream,
		Values: [][]string{{fmt.Sprintf("%d", timestamp.UnixNano()), line}},
	}}})
	if err != nil {
		return err
	}

	url := strings.TrimSuffix(baseURL, "/") + "/loki/api/v1/push"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
