package controllers

import (
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/herrfennessey/book-recommender-indexer/internal/conf"
)

// NewHTTPServer assembles the Kratos HTTP transport and mounts the push
// routes. One route per subscription: catalog, activity, profiles.
func NewHTTPServer(bc *conf.Bootstrap, activity *ActivityHandler, catalog *CatalogHandler, profile *ProfileHandler, health *HealthHandler) *http.Server {
	opts := []http.ServerOption{
		http.Address(bc.Server.HTTP.Addr),
		http.Middleware(recovery.Recovery()),
	}
	if bc.Server.HTTP.Timeout > 0 {
		opts = append(opts, http.Timeout(bc.Server.HTTP.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	route := srv.Route("/")
	route.GET("/", health.Welcome)
	route.GET("/health", health.Check)
	route.POST("/pubsub/catalog/handle", catalog.Handle)
	route.POST("/pubsub/activity/handle", activity.Handle)
	route.POST("/pubsub/profiles/handle", profile.Handle)
	return srv
}
