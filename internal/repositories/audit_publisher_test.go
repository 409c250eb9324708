package repositories_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/herrfennessey/book-recommender-indexer/internal/conf"
	"github.com/herrfennessey/book-recommender-indexer/internal/models/po"
	"github.com/herrfennessey/book-recommender-indexer/internal/repositories"
)

func newAuditFixture(t *testing.T) (*repositories.PubSubAuditPublisher, *pstest.Server) {
	t.Helper()
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(ctx, "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.CreateTopic(ctx, "books")
	require.NoError(t, err)
	_, err = client.CreateTopic(ctx, "user-reviews")
	require.NoError(t, err)

	bc := &conf.Bootstrap{
		Audit: conf.Audit{
			ProjectID:       "test-project",
			BookTopic:       "books",
			UserReviewTopic: "user-reviews",
			PublishWait:     conf.Duration(10 * time.Second),
		},
	}
	publisher := repositories.NewPubSubAuditPublisher(client, bc, stdLogger)
	t.Cleanup(publisher.Stop)
	return publisher, srv
}

func TestSendActivityMirrorsRecords(t *testing.T) {
	publisher, srv := newAuditFixture(t)

	records := []po.ActivityRecord{
		{OwnerID: 7, EntityID: 1, Rating: 5, OccurredAt: po.NewTimestamp(time.Now()), ObservedAt: po.NewTimestamp(time.Now())},
		{OwnerID: 7, EntityID: 2, Rating: 4, OccurredAt: po.NewTimestamp(time.Now()), ObservedAt: po.NewTimestamp(time.Now())},
	}
	publisher.SendActivity(context.Background(), records)

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	for _, msg := range msgs {
		require.NotEmpty(t, msg.Attributes["correlation_id"])
		var rec po.ActivityRecord
		require.NoError(t, json.Unmarshal(msg.Data, &rec))
		require.Equal(t, int64(7), rec.OwnerID)
	}
}

func TestSendCatalogMirrorsRecords(t *testing.T) {
	publisher, srv := newAuditFixture(t)

	publisher.SendCatalog(context.Background(), []*po.CatalogRecord{{
		EntityID:        42,
		Title:           "The Dispossessed",
		Author:          "Ursula K. Le Guin",
		AvgRating:       4.25,
		RatingHistogram: []int64{1, 2, 3, 4, 5},
		ScrapedAt:       po.NewTimestamp(time.Now()),
	}})

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var rec po.CatalogRecord
	require.NoError(t, json.Unmarshal(msgs[0].Data, &rec))
	require.Equal(t, int64(42), rec.EntityID)
}

func TestSendEmptyBatchPublishesNothing(t *testing.T) {
	publisher, srv := newAuditFixture(t)

	publisher.SendActivity(context.Background(), nil)
	publisher.SendCatalog(context.Background(), nil)
	require.Empty(t, srv.Messages())
}
