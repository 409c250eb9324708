package repositories

import "github.com/google/wire"

// ProviderSet collects repository constructors for Wire DI.
var ProviderSet = wire.NewSet(
	NewPgxPool,
	NewPubSubClient,
	NewCatalogAPIRepository,
	NewPopularityRepository,
	NewRiverTaskQueue,
	NewPubSubAuditPublisher,
)
