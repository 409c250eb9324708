package controllers

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// HealthAPI is the service capability the health handler depends on.
type HealthAPI interface {
	Check(ctx context.Context) bool
}

// HealthHandler serves the welcome banner and the readiness probe.
type HealthHandler struct {
	*BaseHandler
	health HealthAPI
	log    *log.Helper
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(health HealthAPI, base *BaseHandler, logger log.Logger) *HealthHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &HealthHandler{
		BaseHandler: base,
		health:      health,
		log:         log.NewHelper(logger),
	}
}

type statusResponse struct {
	Status string `json:"status"`
}

// Welcome answers the root probe.
func (h *HealthHandler) Welcome(ctx http.Context) error {
	return ctx.Result(200, statusResponse{Status: "Ready to Rock!"})
}

// Check probes the external collaborators and reports aggregate readiness.
func (h *HealthHandler) Check(ctx http.Context) error {
	timeoutCtx, cancel := h.WithQueryTimeout(ctx)
	defer cancel()
	if !h.health.Check(timeoutCtx) {
		return ctx.Result(503, statusResponse{Status: "Not Healthy"})
	}
	return ctx.Result(200, statusResponse{Status: "Healthy"})
}
