//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/herrfennessey/book-recommender-indexer/internal/conf"
	"github.com/herrfennessey/book-recommender-indexer/internal/controllers"
	"github.com/herrfennessey/book-recommender-indexer/internal/repositories"
	"github.com/herrfennessey/book-recommender-indexer/internal/services"
)

// wireApp assembles the full application graph.
func wireApp(bc *conf.Bootstrap, logger log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		repositories.ProviderSet,
		services.ProviderSet,
		controllers.ProviderSet,
		newApp,
	))
}
