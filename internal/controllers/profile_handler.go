package controllers

import (
	"context"
	"encoding/json"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/herrfennessey/book-recommender-indexer/internal/models/vo"
)

// EnqueuerAPI is the service capability the profile handler depends on.
type EnqueuerAPI interface {
	EnqueueOwnerScrape(ctx context.Context, ownerID int64) (vo.EnqueueOutcome, error)
}

// ProfileHandler consumes profile push messages and schedules owner scrapes.
// There is no reconciliation step: the payload is a single owner id.
type ProfileHandler struct {
	*BaseHandler
	enqueuer EnqueuerAPI
	log      *log.Helper
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(enqueuer EnqueuerAPI, base *BaseHandler, logger log.Logger) *ProfileHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &ProfileHandler{
		BaseHandler: base,
		enqueuer:    enqueuer,
		log:         log.NewHelper(logger),
	}
}

type profilePayload struct {
	OwnerID int64 `json:"owner_id"`
}

// Handle acknowledges one profile message. Matching the batch handlers, a
// payload that can never parse is acked empty rather than redelivered; an
// enqueue failure is also acked (with no task) because profile scrapes are
// routinely re-announced by the scraper fleet.
func (h *ProfileHandler) Handle(ctx http.Context) error {
	var env PushEnvelope
	if err := ctx.Bind(&env); err != nil {
		return errors.New(422, "ENVELOPE_INVALID", err.Error())
	}
	if err := env.Validate(); err != nil {
		return errors.New(422, "ENVELOPE_INVALID", err.Error())
	}

	receipt := &vo.ProfileReceipt{}
	payload, ok := h.unpackProfile(ctx, &env)
	if !ok {
		return ctx.Result(200, receipt)
	}

	timeoutCtx, cancel := h.WithIngestTimeout(ctx)
	defer cancel()
	h.log.WithContext(ctx).Infow("msg", "attempting to enqueue owner scrape", "owner_id", payload.OwnerID)
	outcome, err := h.enqueuer.EnqueueOwnerScrape(timeoutCtx, payload.OwnerID)
	if err != nil {
		h.log.WithContext(ctx).Errorw("msg", "owner scrape enqueue failed", "owner_id", payload.OwnerID, "error", err)
		return ctx.Result(200, receipt)
	}
	label := outcome.Label()
	receipt.Task = &label
	return ctx.Result(200, receipt)
}

func (h *ProfileHandler) unpackProfile(ctx context.Context, env *PushEnvelope) (*profilePayload, bool) {
	decoded, err := decodePayload(env)
	if err != nil {
		h.log.WithContext(ctx).Errorw("msg", "profile payload undecodable", "message_id", env.Message.MessageID, "error", err)
		return nil, false
	}
	var payload profilePayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		h.log.WithContext(ctx).Errorw("msg", "profile payload was not in JSON", "message_id", env.Message.MessageID, "payload", string(decoded), "error", err)
		return nil, false
	}
	if payload.OwnerID <= 0 {
		h.log.WithContext(ctx).Errorw("msg", "profile payload missing owner_id", "message_id", env.Message.MessageID, "payload", string(decoded))
		return nil, false
	}
	return &payload, true
}
