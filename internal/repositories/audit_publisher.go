package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/herrfennessey/book-recommender-indexer/internal/conf"
	"github.com/herrfennessey/book-recommender-indexer/internal/models/po"
)

// PubSubAuditPublisher mirrors successfully indexed records onto the audit
// topics so downstream analytics gets an at-least-once copy. Each publish is
// fire-and-forget per message, but a send blocks until every message either
// confirms or exceeds the bounded wait; a timeout is logged, never raised.
type PubSubAuditPublisher struct {
	catalogTopic  *pubsub.Topic
	activityTopic *pubsub.Topic
	publishWait   time.Duration
	log           *log.Helper
}

// NewPubSubAuditPublisher resolves the audit topics on the given client.
func NewPubSubAuditPublisher(client *pubsub.Client, bc *conf.Bootstrap, logger log.Logger) *PubSubAuditPublisher {
	return &PubSubAuditPublisher{
		catalogTopic:  client.Topic(bc.Audit.BookTopic),
		activityTopic: client.Topic(bc.Audit.UserReviewTopic),
		publishWait:   bc.Audit.PublishWait.AsDuration(),
		log:           log.NewHelper(logger),
	}
}

// NewPubSubClient opens the Pub/Sub client for the configured project.
func NewPubSubClient(bc *conf.Bootstrap) (*pubsub.Client, func(), error) {
	client, err := pubsub.NewClient(context.Background(), bc.Audit.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("new pubsub client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// SendCatalog mirrors newly written catalog records.
func (p *PubSubAuditPublisher) SendCatalog(ctx context.Context, records []*po.CatalogRecord) {
	messages := make([]any, len(records))
	for i, rec := range records {
		messages[i] = rec
	}
	p.sendBatch(ctx, p.catalogTopic, messages)
}

// SendActivity mirrors newly written activity records.
func (p *PubSubAuditPublisher) SendActivity(ctx context.Context, records []po.ActivityRecord) {
	messages := make([]any, len(records))
	for i, rec := range records {
		messages[i] = rec
	}
	p.sendBatch(ctx, p.activityTopic, messages)
}

func (p *PubSubAuditPublisher) sendBatch(ctx context.Context, topic *pubsub.Topic, messages []any) {
	if len(messages) == 0 {
		return
	}
	start := time.Now()
	results := make([]*pubsub.PublishResult, 0, len(messages))
	for _, message := range messages {
		data, err := json.Marshal(message)
		if err != nil {
			p.log.WithContext(ctx).Errorw("msg", "audit record not serializable, skipping", "error", err)
			continue
		}
		results = append(results, topic.Publish(ctx, &pubsub.Message{
			Data:       data,
			Attributes: map[string]string{"correlation_id": uuid.NewString()},
		}))
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.publishWait)
	defer cancel()
	for _, result := range results {
		if _, err := result.Get(waitCtx); err != nil {
			p.log.WithContext(ctx).Errorw("msg", "audit publish did not confirm", "topic", topic.String(), "error", err)
		}
	}
	p.log.WithContext(ctx).Infow("msg", "audit batch sent", "topic", topic.String(), "count", len(results), "elapsed", time.Since(start))
}

// Stop flushes and stops the topic publishers. Called on shutdown.
func (p *PubSubAuditPublisher) Stop() {
	p.catalogTopic.Stop()
	p.activityTopic.Stop()
}
