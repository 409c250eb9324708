package controllers

import (
	"context"
	"encoding/json"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/herrfennessey/book-recommender-indexer/internal/models/vo"
)

// CatalogAPI is the service capability the catalog handler depends on.
type CatalogAPI interface {
	ProcessBatch(ctx context.Context, items []json.RawMessage) (*vo.IngestReceipt, error)
}

// CatalogHandler consumes catalog push batches from the bus.
type CatalogHandler struct {
	*BaseHandler
	service CatalogAPI
	log     *log.Helper
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service CatalogAPI, base *BaseHandler, logger log.Logger) *CatalogHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &CatalogHandler{
		BaseHandler: base,
		service:     service,
		log:         log.NewHelper(logger),
	}
}

// Handle acknowledges one catalog batch with the indexed count.
func (h *CatalogHandler) Handle(ctx http.Context) error {
	var env PushEnvelope
	if err := ctx.Bind(&env); err != nil {
		return errors.New(422, "ENVELOPE_INVALID", err.Error())
	}
	if err := env.Validate(); err != nil {
		return errors.New(422, "ENVELOPE_INVALID", err.Error())
	}

	items := unpackItems(ctx, &env, h.log)
	if len(items) == 0 {
		return ctx.Result(200, &vo.IngestReceipt{Indexed: 0, Tasks: []string{}})
	}

	timeoutCtx, cancel := h.WithIngestTimeout(ctx)
	defer cancel()
	receipt, err := h.service.ProcessBatch(timeoutCtx, items)
	if err != nil {
		h.log.WithContext(ctx).Errorw("msg", "catalog batch aborted", "message_id", env.Message.MessageID, "error", err)
		return errors.InternalServer("BATCH_ABORTED", err.Error())
	}
	if receipt.Tasks == nil {
		receipt.Tasks = []string{}
	}
	return ctx.Result(200, receipt)
}
