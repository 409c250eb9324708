// Package controllers provides the transport-layer handlers: envelope
// binding, payload unpacking and mapping of internal outcomes onto
// acknowledgement codes.
package controllers

import (
	"github.com/google/wire"

	"github.com/herrfennessey/book-recommender-indexer/internal/services"
)

// ProvideActivityAPI adapts ActivityService for dependency injection.
func ProvideActivityAPI(s *services.ActivityService) ActivityAPI { return s }

// ProvideCatalogAPI adapts CatalogService for dependency injection.
func ProvideCatalogAPI(s *services.CatalogService) CatalogAPI { return s }

// ProvideEnqueuerAPI adapts TaskEnqueuerService for dependency injection.
func ProvideEnqueuerAPI(s *services.TaskEnqueuerService) EnqueuerAPI { return s }

// ProvideHealthAPI adapts HealthService for dependency injection.
func ProvideHealthAPI(s *services.HealthService) HealthAPI { return s }

// ProvideHandlerTimeouts uses the defaults; deployments tune via server
// timeout instead.
func ProvideHandlerTimeouts() HandlerTimeouts { return HandlerTimeouts{} }

// ProviderSet collects controller constructors for Wire DI.
var ProviderSet = wire.NewSet(
	ProvideHandlerTimeouts,
	NewBaseHandler,
	ProvideActivityAPI,
	ProvideCatalogAPI,
	ProvideEnqueuerAPI,
	ProvideHealthAPI,
	NewActivityHandler,
	NewCatalogHandler,
	NewProfileHandler,
	NewHealthHandler,
	NewHTTPServer,
)
