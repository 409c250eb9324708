package controllers

import (
	"context"
	"time"
)

// HandlerTimeouts bounds handler-side processing. Zero values fall back to
// defaults sized for one push batch end to end, including the audit joins.
type HandlerTimeouts struct {
	Ingest time.Duration
	Query  time.Duration
}

const (
	defaultIngestTimeout = 120 * time.Second
	defaultQueryTimeout  = 5 * time.Second
)

// BaseHandler carries behavior shared by the push handlers.
type BaseHandler struct {
	timeouts HandlerTimeouts
}

// NewBaseHandler normalizes the timeout settings.
func NewBaseHandler(timeouts HandlerTimeouts) *BaseHandler {
	if timeouts.Ingest <= 0 {
		timeouts.Ingest = defaultIngestTimeout
	}
	if timeouts.Query <= 0 {
		timeouts.Query = defaultQueryTimeout
	}
	return &BaseHandler{timeouts: timeouts}
}

// WithIngestTimeout bounds the reconciliation of one batch.
func (h *BaseHandler) WithIngestTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.timeouts.Ingest)
}

// WithQueryTimeout bounds lightweight probes.
func (h *BaseHandler) WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.timeouts.Query)
}
