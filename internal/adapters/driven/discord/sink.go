// Package discord delivers row notifications through Discord webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/rowfeed/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DeliverySink = (*Sink)(nil)

// Discord embed limits.
const (
	maxFields     = 25
	maxFieldValue = 1024
	embedColor    = 0x3498db
)

// Sink implements driven.DeliverySink against the Discord webhook API.
// The sink ID is the webhook path ("{id}/{token}"); each row becomes one
// embed message with the worksheet headers as field labels, so a single
// oversized batch never has to be split by the sink.
type Sink struct {
	httpClient *http.Client
	baseURL    string
	username   string
}

// Config holds sink configuration.
type Config struct {
	// BaseURL is the webhook API root (default: https://discord.com/api/webhooks).
	BaseURL string

	// Username overrides the webhook's display name (optional).
	Username string

	// Timeout bounds one HTTP round trip (default: 15s).
	Timeout time.Duration
}

// NewSink creates a new Discord webhook sink.
func NewSink(cfg Config) *Sink {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://discord.com/api/webhooks"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Sink{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		username:   cfg.Username,
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title  string       `json:"title"`
	Color  int          `json:"color"`
	Fields []embedField `json:"fields"`
	Footer embedFooter  `json:"footer"`
}

type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

// Deliver sends one message per row. A failed row does not stop the
// remaining rows, but any failure yields a non-nil error so the caller
// keeps the cursor where it was.
func (s *Sink) Deliver(ctx context.Context, sinkID string, headers []string, rows [][]string, worksheet string) (int, error) {
	delivered := 0
	var errs []error
	for i, row := range rows {
		if err := s.sendRow(ctx, sinkID, headers, row, worksheet); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// sendRow posts one embed, retrying once when Discord answers 429 with a
// Retry-After hint.
func (s *Sink) sendRow(ctx context.Context, sinkID string, headers, row []string, worksheet string) error {
	payload := webhookPayload{
		Username: s.username,
		Embeds:   []embed{buildEmbed(headers, row, worksheet)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	url := s.baseURL + "/" + sinkID
	retried := false
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("post webhook: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && !retried {
			wait := retryAfter(resp)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			retried = true
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
			resp.Body.Close()
			return fmt.Errorf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 && secs < 30 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Second
}

// buildEmbed turns one row into an embed, labelling each cell with the
// matching header.
func buildEmbed(headers, row []string, worksheet string) embed {
	e := embed{
		Title:  fmt.Sprintf("New row in %s", worksheet),
		Color:  embedColor,
		Footer: embedFooter{Text: "rowfeed"},
	}

	for i, cell := range row {
		if len(e.Fields) == maxFields {
			break
		}
		name := fmt.Sprintf("Column %d", i+1)
		if i < len(headers) && headers[i] != "" {
			name = headers[i]
		}
		value := cell
		if value == "" {
			value = "—"
		}
		if utf8.RuneCountInString(value) > maxFieldValue {
			value = string([]rune(value)[:maxFieldValue-1]) + "…"
		}
		e.Fields = append(e.Fields, embedField{Name: name, Value: value})
	}
	return e
}
