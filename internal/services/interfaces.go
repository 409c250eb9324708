package services

import (
	"context"

	"github.com/herrfennessey/book-recommender-indexer/internal/models/po"
	"github.com/herrfennessey/book-recommender-indexer/internal/models/vo"
)

// CatalogGateway abstracts the book recommender API: writes and authoritative
// existence checks. Implementations classify failures into the ErrClient /
// ErrServer taxonomy from the repositories package.
type CatalogGateway interface {
	CreateEntity(ctx context.Context, rec *po.CatalogRecord) error
	CreateActivityBatch(ctx context.Context, recs []po.ActivityRecord) (int, error)
	EntitiesIndexed(ctx context.Context, entityIDs []int64) ([]int64, error)
	OwnerEntityIDs(ctx context.Context, ownerID int64) ([]int64, error)
	Ready(ctx context.Context) bool
}

// PopularityProvider answers per-entity owner counts. Entities whose
// popularity could not be determined are omitted from the map; the call
// itself never fails.
type PopularityProvider interface {
	EntityPopularity(ctx context.Context, entityIDs []int64) map[int64]int
}

// TaskQueue schedules scrape jobs with deterministic identities. A duplicate
// submission is a normal outcome; only transport failures surface as errors.
type TaskQueue interface {
	EnqueueEntityScrape(ctx context.Context, entityID int64) (vo.EnqueueOutcome, error)
	EnqueueOwnerScrape(ctx context.Context, ownerID int64) (vo.EnqueueOutcome, error)
	Ready(ctx context.Context) bool
}

// AuditPublisher mirrors successfully written records for analytics. Sends
// block until every message confirms or times out, and never fail the caller.
type AuditPublisher interface {
	SendCatalog(ctx context.Context, records []*po.CatalogRecord)
	SendActivity(ctx context.Context, records []po.ActivityRecord)
}
