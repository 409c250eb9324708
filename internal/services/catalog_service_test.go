package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/herrfennessey/book-recommender-indexer/internal/caches"
	"github.com/herrfennessey/book-recommender-indexer/internal/repositories"
	"github.com/herrfennessey/book-recommender-indexer/internal/services"
)

type catalogFixture struct {
	gateway *stubGateway
	audit   *stubAudit
	cache   *caches.EntityExistsCache
	service *services.CatalogService
}

func newCatalogFixture(t *testing.T, gateway *stubGateway) *catalogFixture {
	t.Helper()
	cache, err := caches.NewEntityExistsCache(100)
	require.NoError(t, err)
	audit := &stubAudit{}
	return &catalogFixture{
		gateway: gateway,
		audit:   audit,
		cache:   cache,
		service: services.NewCatalogService(gateway, audit, cache, stdLogger),
	}
}

func catalogItem(t *testing.T, entityID int64) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"entity_id":        entityID,
		"title":            "A Wizard of Earthsea",
		"author":           "Ursula K. Le Guin",
		"avg_rating":       4.01,
		"rating_histogram": []int64{10, 20, 30, 40, 50},
		"scraped_at":       time.Now().UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)
	return raw
}

func TestCatalogProcessBatchWritesNewRecords(t *testing.T) {
	f := newCatalogFixture(t, &stubGateway{})

	receipt, err := f.service.ProcessBatch(context.Background(), []json.RawMessage{
		catalogItem(t, 1),
		catalogItem(t, 2),
	})
	require.NoError(t, err)
	require.Equal(t, 2, receipt.Indexed)
	require.Equal(t, []string{}, receipt.Tasks)
	require.Equal(t, []int64{1, 2}, f.gateway.createdEntities)
	require.Len(t, f.audit.catalogSends, 1)
	require.True(t, f.cache.Exists(1))
	require.True(t, f.cache.Exists(2))
}

func TestCatalogProcessBatchSkipsAlreadyIndexed(t *testing.T) {
	gateway := &stubGateway{indexedIDs: []int64{1}}
	f := newCatalogFixture(t, gateway)

	receipt, err := f.service.ProcessBatch(context.Background(), []json.RawMessage{
		catalogItem(t, 1),
		catalogItem(t, 2),
	})
	require.NoError(t, err)
	require.Equal(t, 1, receipt.Indexed)
	require.Equal(t, []int64{2}, f.gateway.createdEntities)
	require.True(t, f.cache.Exists(1), "the authoritative answer seeds the cache")
}

func TestCatalogProcessBatchCacheShortCircuits(t *testing.T) {
	f := newCatalogFixture(t, &stubGateway{})
	batch := []json.RawMessage{catalogItem(t, 1)}

	_, err := f.service.ProcessBatch(context.Background(), batch)
	require.NoError(t, err)

	receipt, err := f.service.ProcessBatch(context.Background(), batch)
	require.NoError(t, err)
	require.Equal(t, 0, receipt.Indexed)
	require.Equal(t, []int64{1}, f.gateway.createdEntities, "a cached entity is never re-written")
}

func TestCatalogProcessBatchCollapsesDuplicateIDs(t *testing.T) {
	f := newCatalogFixture(t, &stubGateway{})

	receipt, err := f.service.ProcessBatch(context.Background(), []json.RawMessage{
		catalogItem(t, 1),
		catalogItem(t, 1),
	})
	require.NoError(t, err)
	require.Equal(t, 1, receipt.Indexed)
}

func TestCatalogProcessBatchClientErrorDropsRecordOnly(t *testing.T) {
	gateway := &stubGateway{
		createEntityErr: map[int64]error{
			1: fmt.Errorf("%w: put entity 1: status 422", repositories.ErrClient),
		},
	}
	f := newCatalogFixture(t, gateway)

	receipt, err := f.service.ProcessBatch(context.Background(), []json.RawMessage{
		catalogItem(t, 1),
		catalogItem(t, 2),
	})
	require.NoError(t, err)
	require.Equal(t, 1, receipt.Indexed)
	require.False(t, f.cache.Exists(1), "a rejected record is not marked as existing")
	require.Len(t, f.audit.catalogSends, 1)
	require.Equal(t, int64(2), f.audit.catalogSends[0][0].EntityID)
}

func TestCatalogProcessBatchServerErrorAborts(t *testing.T) {
	gateway := &stubGateway{
		createEntityErr: map[int64]error{
			1: fmt.Errorf("%w: put entity 1: status 500", repositories.ErrServer),
		},
	}
	f := newCatalogFixture(t, gateway)

	_, err := f.service.ProcessBatch(context.Background(), []json.RawMessage{
		catalogItem(t, 1),
		catalogItem(t, 2),
	})
	require.Error(t, err)
	require.Empty(t, f.audit.catalogSends)
}

func TestCatalogProcessBatchExistsCheckFailureAborts(t *testing.T) {
	gateway := &stubGateway{indexedErr: fmt.Errorf("%w: entities batch exists: status 500", repositories.ErrServer)}
	f := newCatalogFixture(t, gateway)

	_, err := f.service.ProcessBatch(context.Background(), []json.RawMessage{catalogItem(t, 1)})
	require.Error(t, err)
	require.Empty(t, f.gateway.createdEntities)
}

func TestCatalogProcessBatchDropsInvalidItems(t *testing.T) {
	f := newCatalogFixture(t, &stubGateway{})

	receipt, err := f.service.ProcessBatch(context.Background(), []json.RawMessage{
		catalogItem(t, 1),
		json.RawMessage(`{"title": "no id"}`),
	})
	require.NoError(t, err)
	require.Equal(t, 1, receipt.Indexed)
}
