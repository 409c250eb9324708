// Package services implements the ingestion use cases and defines the
// interfaces its collaborators must satisfy.
package services

import (
	"github.com/google/wire"

	"github.com/herrfennessey/book-recommender-indexer/internal/caches"
	"github.com/herrfennessey/book-recommender-indexer/internal/conf"
	"github.com/herrfennessey/book-recommender-indexer/internal/repositories"
)

// ProvideCatalogGateway adapts the HTTP repository for dependency injection.
func ProvideCatalogGateway(r *repositories.CatalogAPIRepository) CatalogGateway { return r }

// ProvidePopularityProvider adapts the popularity repository.
func ProvidePopularityProvider(r *repositories.PopularityRepository) PopularityProvider { return r }

// ProvideTaskQueue adapts the River queue.
func ProvideTaskQueue(q *repositories.RiverTaskQueue) TaskQueue { return q }

// ProvideAuditPublisher adapts the Pub/Sub publisher.
func ProvideAuditPublisher(p *repositories.PubSubAuditPublisher) AuditPublisher { return p }

// ProvideOwnerActivityCache builds the owner activity cache from config.
func ProvideOwnerActivityCache(bc *conf.Bootstrap) *caches.OwnerActivityCache {
	return caches.NewOwnerActivityCache(bc.Ingest.UserCacheSize, bc.Ingest.UserCacheTTL.AsDuration())
}

// ProvideEntityExistsCache builds the entity existence cache from config.
func ProvideEntityExistsCache(bc *conf.Bootstrap) (*caches.EntityExistsCache, error) {
	return caches.NewEntityExistsCache(bc.Ingest.BookCacheSize)
}

// ProviderSet collects service constructors for Wire DI.
var ProviderSet = wire.NewSet(
	ProvideCatalogGateway,
	ProvidePopularityProvider,
	ProvideTaskQueue,
	ProvideAuditPublisher,
	ProvideOwnerActivityCache,
	ProvideEntityExistsCache,
	NewActivityService,
	NewCatalogService,
	NewTaskEnqueuerService,
	NewHealthService,
)
