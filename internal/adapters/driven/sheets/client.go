// Package sheets is the HTTP adapter for the remote tabular source API.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
	"github.com/custodia-labs/rowfeed/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SheetAPI = (*Client)(nil)

// Client implements driven.SheetAPI against the spreadsheet service's
// REST API. It maps HTTP failures onto the domain error taxonomy so the
// retry policy upstream can tell transient from permanent; it performs no
// retries itself.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://sheets.example.com
	BaseURL string

	// Token authenticates every request as a Bearer token.
	Token string

	// Timeout bounds one HTTP round trip (default: 30s).
	Timeout time.Duration
}

// NewClient creates a new spreadsheet API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
	}
}

type worksheetList struct {
	Worksheets []struct {
		Title string `json:"title"`
	} `json:"worksheets"`
}

type valueRange struct {
	Values [][]string `json:"values"`
}

// ListWorksheets returns the worksheet titles of a source in API order.
func (c *Client) ListWorksheets(ctx context.Context, sourceID string) ([]string, error) {
	path := fmt.Sprintf("/v1/sources/%s/worksheets", url.PathEscape(sourceID))

	var list worksheetList
	if err := c.getJSON(ctx, path, domain.ErrSourceNotFound, &list); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(list.Worksheets))
	for _, ws := range list.Worksheets {
		names = append(names, ws.Title)
	}
	return names, nil
}

// GetHeader returns the header row of a worksheet.
func (c *Client) GetHeader(ctx context.Context, sourceID, worksheet string) ([]string, error) {
	path := fmt.Sprintf("/v1/sources/%s/worksheets/%s/header",
		url.PathEscape(sourceID), url.PathEscape(worksheet))

	var vr valueRange
	if err := c.getJSON(ctx, path, domain.ErrWorksheetNotFound, &vr); err != nil {
		return nil, err
	}
	if len(vr.Values) == 0 {
		return nil, nil
	}
	return vr.Values[0], nil
}

// GetRows returns all data rows of a worksheet in append order.
func (c *Client) GetRows(ctx context.Context, sourceID, worksheet string) ([][]string, error) {
	path := fmt.Sprintf("/v1/sources/%s/worksheets/%s/rows",
		url.PathEscape(sourceID), url.PathEscape(worksheet))

	var vr valueRange
	if err := c.getJSON(ctx, path, domain.ErrWorksheetNotFound, &vr); err != nil {
		return nil, err
	}
	return vr.Values, nil
}

// getJSON performs an authenticated GET and decodes the response.
// notFound is the sentinel to wrap a 404 in, since the same status means
// a missing source on one route and a missing worksheet on another.
func (c *Client) getJSON(ctx context.Context, path string, notFound error, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return classifyStatus(resp.StatusCode, strings.TrimSpace(string(body)), notFound)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classifyStatus maps an HTTP status onto the domain error taxonomy.
func classifyStatus(status int, body string, notFound error) error {
	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return fmt.Errorf("%w: %s", notFound, body)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", domain.ErrAccessRevoked, status, body)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, body)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUnavailable, status, body)
	default:
		return fmt.Errorf("source api error %d: %s", status, body)
	}
}
