package main

import (
	"flag"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/herrfennessey/book-recommender-indexer/internal/conf"
)

var (
	// Name is the registered service name.
	Name = "book-recommender-indexer"
	// Version is set at build time via -ldflags.
	Version string

	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func newApp(logger log.Logger, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Logger(logger),
		kratos.Server(hs),
	)
}

func main() {
	flag.Parse()

	hostname, _ := os.Hostname()
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", Name,
		"service.version", Version,
		"host", hostname,
	)
	helper := log.NewHelper(logger)

	bc, err := conf.Load(flagconf)
	if err != nil {
		helper.Fatalw("msg", "failed to load configuration", "path", flagconf, "error", err)
	}

	app, cleanup, err := wireApp(bc, logger)
	if err != nil {
		helper.Fatalw("msg", "failed to assemble application", "error", err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		helper.Fatalw("msg", "application terminated", "error", err)
	}
}
