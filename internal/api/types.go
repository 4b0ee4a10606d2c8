// Package api holds the wire types shared by the content service and its
// clients.
package api

import "factline/internal/timeline"

// MaxBatchIDs is the per-request ceiling on batch article lookups. Requests
// above it are rejected outright; clients chunk under it.
const MaxBatchIDs = 50

// BatchRequest is the body of POST /api/articles/batch.
type BatchRequest struct {
	ArticleIDs []string `json:"articleIds"`
	FigureID   string   `json:"figureId,omitempty"`
}

// BatchResponse carries the articles that resolved. Requested ids that are
// unknown or were dropped by sanitization are simply absent.
type BatchResponse struct {
	Articles []timeline.Article `json:"articles"`
}

// TimelineContent wraps the curated timeline payload.
type TimelineContent struct {
	Data timeline.CuratedTimeline `json:"data"`
}

// FigureContentResponse is the body of GET /api/figures/{id}/content.
type FigureContentResponse struct {
	MainOverview    string          `json:"main_overview"`
	TimelineContent TimelineContent `json:"timeline_content"`
}

// ErrorResponse is the body of 4xx responses that carry an explanation.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UpdateEvent is pushed over the websocket feed when a figure's content
// changes on disk.
type UpdateEvent struct {
	FigureID string `json:"figureId"`
}
