package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/herrfennessey/book-recommender-indexer/internal/conf"
)

// Per-entity popularity calls classify into exactly one of these. The
// classification never leaves this package: a request that fails after every
// retry is simply omitted from the result map.
type popularityClass int

const (
	classSuccess popularityClass = iota
	classRetryable
	classNonRetryable
)

type popularityOutcome struct {
	class popularityClass
	count int
}

// PopularityRepository answers "how many owners reference this entity" with
// one concurrent request per entity. It owns the only explicit retry loop in
// the pipeline; the upstream is rate limited, so 429/503/504 and connect
// failures retry on a fixed delay while anything else gives up immediately.
type PopularityRepository struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   int
	retryWait  time.Duration
	queryLimit int
	log        *log.Helper
}

// NewPopularityRepository builds the popularity adapter from config.
func NewPopularityRepository(bc *conf.Bootstrap, logger log.Logger) *PopularityRepository {
	limit := rate.Inf
	if bc.Downstream.PopularityRPS > 0 {
		limit = rate.Limit(bc.Downstream.PopularityRPS)
	}
	return &PopularityRepository{
		baseURL:    bc.Downstream.BaseURL,
		httpClient: &http.Client{Timeout: bc.Downstream.Timeout.AsDuration()},
		limiter:    rate.NewLimiter(limit, 1),
		attempts:   bc.Downstream.RetryAttempts,
		retryWait:  bc.Downstream.RetryWait.AsDuration(),
		queryLimit: bc.Ingest.PopularityThreshold,
		log:        log.NewHelper(logger),
	}
}

// EntityPopularity fans out one request per entity and aggregates the counts
// that ultimately succeeded. Omission is the error channel here: an entity
// whose popularity could not be determined this batch is left out of the map
// and never fails the caller.
func (r *PopularityRepository) EntityPopularity(ctx context.Context, entityIDs []int64) map[int64]int {
	counts := make(map[int64]int, len(entityIDs))
	if len(entityIDs) == 0 {
		return counts
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, entityID := range entityIDs {
		entityID := entityID
		g.Go(func() error {
			outcome := r.fetchWithRetry(ctx, entityID)
			if outcome.class == classSuccess {
				mu.Lock()
				counts[entityID] = outcome.count
				mu.Unlock()
			}
			return nil
		})
	}
	// The goroutines never return errors; Wait is the join point that
	// guarantees no partial results are acted on early.
	_ = g.Wait()
	return counts
}

func (r *PopularityRepository) fetchWithRetry(ctx context.Context, entityID int64) popularityOutcome {
	for attempt := 1; ; attempt++ {
		outcome := r.fetchOnce(ctx, entityID)
		if outcome.class != classRetryable {
			return outcome
		}
		if attempt >= r.attempts {
			r.log.WithContext(ctx).Warnw("msg", "popularity retries exhausted, omitting entity", "entity_id", entityID, "attempts", attempt)
			return outcome
		}
		if err := sleepContext(ctx, r.retryWait); err != nil {
			return popularityOutcome{class: classNonRetryable}
		}
	}
}

type popularityResponse struct {
	Count int `json:"count"`
}

func (r *PopularityRepository) fetchOnce(ctx context.Context, entityID int64) popularityOutcome {
	if err := r.limiter.Wait(ctx); err != nil {
		return popularityOutcome{class: classNonRetryable}
	}
	url := fmt.Sprintf("%s/entities/%d/popularity?limit=%d", r.baseURL, entityID, r.queryLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return popularityOutcome{class: classNonRetryable}
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		// Connect-level failures are worth another attempt.
		r.log.WithContext(ctx).Warnw("msg", "popularity request failed, retrying", "entity_id", entityID, "error", err)
		return popularityOutcome{class: classRetryable}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return popularityOutcome{class: classRetryable}
	}

	switch {
	case resp.StatusCode < 300:
		var parsed popularityResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			r.log.WithContext(ctx).Warnw("msg", "popularity response undecodable", "entity_id", entityID, "error", err)
			return popularityOutcome{class: classNonRetryable}
		}
		return popularityOutcome{class: classSuccess, count: parsed.Count}
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		r.log.WithContext(ctx).Warnw("msg", "retryable popularity status", "entity_id", entityID, "status", resp.StatusCode)
		return popularityOutcome{class: classRetryable}
	default:
		r.log.WithContext(ctx).Warnw("msg", "non-retryable popularity status", "entity_id", entityID, "status", resp.StatusCode)
		return popularityOutcome{class: classNonRetryable}
	}
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
