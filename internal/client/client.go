// Package client is the HTTP client for the factline content service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"factline/internal/api"
	"factline/internal/loader"
	"factline/internal/timeline"
)

// ErrNoTimeline distinguishes "figure exists but has no curated timeline"
// from "figure not found" (ErrNotFound).
var (
	ErrNotFound   = fmt.Errorf("figure not found")
	ErrNoTimeline = fmt.Errorf("figure has no timeline content")
)

// Client talks to one content service about one figure. It implements
// loader.Fetcher for the batch article endpoint.
type Client struct {
	baseURL  string
	figureID string
	http     *http.Client
}

func New(baseURL, figureID string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		figureID: figureID,
		// No explicit per-request timeout exists server-side; the transport
		// enforces one here so a hung batch cannot stall the whole sequence.
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// FigureContent fetches the figure's overview and curated timeline.
func (c *Client) FigureContent(ctx context.Context) (string, timeline.CuratedTimeline, error) {
	u := fmt.Sprintf("%s/api/figures/%s/content", c.baseURL, url.PathEscape(c.figureID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetching figure content: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		var e api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && strings.Contains(e.Error, "timeline") {
			return "", nil, ErrNoTimeline
		}
		return "", nil, ErrNotFound
	default:
		return "", nil, fmt.Errorf("figure content: unexpected status %d", resp.StatusCode)
	}

	var body api.FigureContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", nil, fmt.Errorf("decoding figure content: %w", err)
	}
	return body.MainOverview, body.TimelineContent.Data, nil
}

// FetchBatch implements loader.Fetcher against the batch article endpoint.
// A 429 becomes loader.ErrRateLimited so the loader defers instead of failing.
func (c *Client) FetchBatch(ctx context.Context, ids []string) (map[string]timeline.Article, error) {
	payload, err := json.Marshal(api.BatchRequest{ArticleIDs: ids, FigureID: c.figureID})
	if err != nil {
		return nil, err
	}

	u := c.baseURL + "/api/articles/batch"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("batch fetch: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, loader.ErrRateLimited
	default:
		return nil, fmt.Errorf("batch fetch: unexpected status %d", resp.StatusCode)
	}

	var body api.BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding batch response: %w", err)
	}

	out := make(map[string]timeline.Article, len(body.Articles))
	for _, a := range body.Articles {
		out[a.ID] = a
	}
	return out, nil
}

// UpdatesURL is the websocket endpoint that announces content changes.
func (c *Client) UpdatesURL() string {
	u := c.baseURL + "/api/updates"
	u = strings.Replace(u, "https://", "wss://", 1)
	return strings.Replace(u, "http://", "ws://", 1)
}
