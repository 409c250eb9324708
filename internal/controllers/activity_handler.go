package controllers

import (
	"context"
	"encoding/json"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/herrfennessey/book-recommender-indexer/internal/models/vo"
)

// ActivityAPI is the service capability the activity handler depends on.
type ActivityAPI interface {
	ProcessBatch(ctx context.Context, items []json.RawMessage) (*vo.IngestReceipt, error)
}

// ActivityHandler consumes activity push batches from the bus.
type ActivityHandler struct {
	*BaseHandler
	service ActivityAPI
	log     *log.Helper
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service ActivityAPI, base *BaseHandler, logger log.Logger) *ActivityHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &ActivityHandler{
		BaseHandler: base,
		service:     service,
		log:         log.NewHelper(logger),
	}
}

// Handle acknowledges one activity batch. Permanently malformed payloads are
// acked with an empty receipt so the bus stops redelivering them; only a
// ServerError surfaces as a 500 to trigger redelivery.
func (h *ActivityHandler) Handle(ctx http.Context) error {
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
		h.log.WithContext(ctx).Errorw("msg", "activity batch aborted", "message_id", env.Message.MessageID, "error", err)
		return errors.InternalServer("BATCH_ABORTED", err.Error())
	}
	if receipt.Tasks == nil {
		receipt.Tasks = []string{}
	}
	return ctx.Result(200, receipt)
}
