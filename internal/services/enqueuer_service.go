package services

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/herrfennessey/book-recommender-indexer/internal/caches"
	"github.com/herrfennessey/book-recommender-indexer/internal/conf"
	"github.com/herrfennessey/book-recommender-indexer/internal/models/vo"
)

// TaskEnqueuerService decides which referenced entities deserve a scrape job
// and schedules them idempotently. An entity qualifies when its observed
// owner count meets the popularity threshold and it is not already indexed
// downstream.
type TaskEnqueuerService struct {
	gateway    CatalogGateway
	popularity PopularityProvider
	queue      TaskQueue
	cache      *caches.EntityExistsCache
	threshold  int
	log        *log.Helper
}

// NewTaskEnqueuerService wires the scheduling use case.
func NewTaskEnqueuerService(gateway CatalogGateway, popularity PopularityProvider, queue TaskQueue, cache *caches.EntityExistsCache, bc *conf.Bootstrap, logger log.Logger) *TaskEnqueuerService {
	return &TaskEnqueuerService{
		gateway:    gateway,
		popularity: popularity,
		queue:      queue,
		cache:      cache,
		threshold:  bc.Ingest.PopularityThreshold,
		log:        log.NewHelper(logger),
	}
}

// EnqueueEntitiesIfNeeded runs the popularity gate over the referenced
// entities and schedules jobs for the qualifying, not-yet-indexed ones. The
// returned labels are job handles or "duplicate", in candidate order.
func (s *TaskEnqueuerService) EnqueueEntitiesIfNeeded(ctx context.Context, entityIDs []int64) ([]string, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	counts := s.popularity.EntityPopularity(ctx, entityIDs)

	candidates := make([]int64, 0, len(entityIDs))
	for _, id := range entityIDs {
		if count, ok := counts[id]; ok && count >= s.threshold {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	unknown := make([]int64, 0, len(candidates))
	for _, id := range candidates {
		if !s.cache.Exists(id) {
			unknown = append(unknown, id)
		}
	}
	already, err := s.gateway.EntitiesIndexed(ctx, unknown)
	if err != nil {
		return nil, fmt.Errorf("scheduling exists check: %w", err)
	}
	alreadySet := make(map[int64]struct{}, len(already))
	for _, id := range already {
		alreadySet[id] = struct{}{}
		s.cache.MarkExists(id)
	}

	tasks := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if s.cache.Exists(id) {
			continue
		}
		if _, ok := alreadySet[id]; ok {
			continue
		}
		s.log.WithContext(ctx).Infow("msg", "scheduling entity scrape", "entity_id", id, "owner_count", counts[id])
		outcome, err := s.queue.EnqueueEntityScrape(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("enqueue entity %d: %w", id, err)
		}
		tasks = append(tasks, outcome.Label())
	}
	return tasks, nil
}

// EnqueueOwnerScrape schedules a profile scrape for one owner.
func (s *TaskEnqueuerService) EnqueueOwnerScrape(ctx context.Context, ownerID int64) (vo.EnqueueOutcome, error) {
	return s.queue.EnqueueOwnerScrape(ctx, ownerID)
}
