// Package conf holds the typed configuration tree loaded at startup.
package conf

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
)

// Duration is a time.Duration that decodes from config both as a Go duration
// string ("500ms", "10m") and as integer nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements flexible duration decoding for config.Scan.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if err := json.Unmarshal(data, &ns); err != nil {
		return err
	}
	*d = Duration(ns)
	return nil
}

// MarshalJSON emits the canonical duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// AsDuration converts back to time.Duration.
func (d Duration) AsDuration() time.Duration { return time.Duration(d) }

// Bootstrap is the root of the service configuration.
type Bootstrap struct {
	Server     Server     `json:"server"`
	Downstream Downstream `json:"downstream"`
	Queue      Queue      `json:"queue"`
	Audit      Audit      `json:"audit"`
	Ingest     Ingest     `json:"ingest"`
}

// Server configures the inbound HTTP listener.
type Server struct {
	HTTP HTTPServer `json:"http"`
}

// HTTPServer configures the Kratos HTTP transport.
type HTTPServer struct {
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

// Downstream configures the book recommender API client.
type Downstream struct {
	BaseURL       string   `json:"base_url"`
	Timeout       Duration `json:"timeout"`
	PopularityRPS float64  `json:"popularity_rps"`
	RetryAttempts int      `json:"retry_attempts"`
	RetryWait     Duration `json:"retry_wait"`
}

// Queue configures the River task queue used for scrape jobs.
type Queue struct {
	DatabaseURL string `json:"database_url"`
	Name        string `json:"name"`
}

// Audit configures the Pub/Sub mirror of indexed records.
type Audit struct {
	ProjectID       string   `json:"project_id"`
	BookTopic       string   `json:"book_topic"`
	UserReviewTopic string   `json:"user_review_topic"`
	PublishWait     Duration `json:"publish_wait"`
}

// Ingest configures reconciliation policy knobs.
type Ingest struct {
	PopularityThreshold int      `json:"popularity_threshold"`
	UserCacheSize       int      `json:"user_cache_size"`
	UserCacheTTL        Duration `json:"user_cache_ttl"`
	BookCacheSize       int      `json:"book_cache_size"`
}

// Defaults mirrored from the production deployment. Zero values in the
// config file fall back to these.
const (
	defaultPopularityThreshold = 5
	defaultUserCacheSize       = 2000
	defaultUserCacheTTL        = Duration(10 * time.Minute)
	defaultBookCacheSize       = 10000
	defaultRetryAttempts       = 3
	defaultRetryWait           = Duration(500 * time.Millisecond)
	defaultPublishWait         = Duration(60 * time.Second)
	defaultDownstreamTimeout   = Duration(20 * time.Second)
)

// Load reads and validates the bootstrap configuration from path. Environment
// variables prefixed with INDEXER_ override file values.
func Load(path string) (*Bootstrap, error) {
	c := config.New(
		config.WithSource(
			file.NewSource(path),
			env.NewSource("INDEXER_"),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, fmt.Errorf("scan config: %w", err)
	}
	bc.applyDefaults()
	if err := bc.validate(); err != nil {
		return nil, err
	}
	return &bc, nil
}

func (b *Bootstrap) applyDefaults() {
	if b.Server.HTTP.Addr == "" {
		b.Server.HTTP.Addr = ":8000"
	}
	if b.Downstream.Timeout <= 0 {
		b.Downstream.Timeout = defaultDownstreamTimeout
	}
	if b.Downstream.RetryAttempts <= 0 {
		b.Downstream.RetryAttempts = defaultRetryAttempts
	}
	if b.Downstream.RetryWait <= 0 {
		b.Downstream.RetryWait = defaultRetryWait
	}
	if b.Queue.Name == "" {
		b.Queue.Name = "book-scrape"
	}
	if b.Audit.PublishWait <= 0 {
		b.Audit.PublishWait = defaultPublishWait
	}
	if b.Ingest.PopularityThreshold <= 0 {
		b.Ingest.PopularityThreshold = defaultPopularityThreshold
	}
	if b.Ingest.UserCacheSize <= 0 {
		b.Ingest.UserCacheSize = defaultUserCacheSize
	}
	if b.Ingest.UserCacheTTL <= 0 {
		b.Ingest.UserCacheTTL = defaultUserCacheTTL
	}
	if b.Ingest.BookCacheSize <= 0 {
		b.Ingest.BookCacheSize = defaultBookCacheSize
	}
}

func (b *Bootstrap) validate() error {
	if b.Downstream.BaseURL == "" {
		return fmt.Errorf("downstream.base_url is required")
	}
	if b.Queue.DatabaseURL == "" {
		return fmt.Errorf("queue.database_url is required")
	}
	if b.Audit.ProjectID == "" {
		return fmt.Errorf("audit.project_id is required")
	}
	return nil
}
