package controllers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/log"
)

// PushMessage is the inner Pub/Sub message of a push delivery.
type PushMessage struct {
	Attributes  map[string]string `json:"attributes"`
	Data        string            `json:"data"`
	MessageID   string            `json:"message_id"`
	PublishTime string            `json:"publish_time"`
}

// PushEnvelope is the transport envelope the bus POSTs to the handlers.
type PushEnvelope struct {
	Message      PushMessage `json:"message"`
	Subscription string      `json:"subscription"`
}

// Validate checks the outer envelope shape. A failure here is the only path
// to a non-2xx/non-500 acknowledgement: the envelope itself is unusable.
func (e *PushEnvelope) Validate() error {
	if e.Message.Data == "" {
		return fmt.Errorf("envelope message.data is required")
	}
	if e.Message.MessageID == "" {
		return fmt.Errorf("envelope message.message_id is required")
	}
	return nil
}

type itemsPayload struct {
	Items *[]json.RawMessage `json:"items"`
}

// unpackItems decodes the base64 payload into the ordered item sequence. Any
// malformation yields an empty sequence plus a diagnostic: the bus redelivers
// forever on a non-success ack, so a payload that can never parse must be
// acknowledged and dropped rather than retried.
func unpackItems(ctx context.Context, env *PushEnvelope, logger *log.Helper) []json.RawMessage {
	logger.WithContext(ctx).Debugw("msg", "handling push message",
		"message_id", env.Message.MessageID,
		"publish_time", env.Message.PublishTime,
		"attributes", env.Message.Attributes)

	decoded, err := decodePayload(env)
	if err != nil {
		logger.WithContext(ctx).Errorw("msg", "payload undecodable", "message_id", env.Message.MessageID, "error", err)
		return nil
	}
	var payload itemsPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		logger.WithContext(ctx).Errorw("msg", "payload was not in JSON", "message_id", env.Message.MessageID, "payload", string(decoded), "error", err)
		return nil
	}
	if payload.Items == nil {
		logger.WithContext(ctx).Errorw("msg", "payload missing items field", "message_id", env.Message.MessageID, "payload", string(decoded))
		return nil
	}
	return *payload.Items
}

// decodePayload reverses the bus's base64 transport encoding.
func decodePayload(env *PushEnvelope) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return nil, fmt.Errorf("payload was not valid base64: %w", err)
	}
	if !utf8.Valid(decoded) {
		return nil, fmt.Errorf("payload was not valid UTF-8")
	}
	return decoded, nil
}
