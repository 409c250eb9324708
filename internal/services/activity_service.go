package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/herrfennessey/book-recommender-indexer/internal/caches"
	"github.com/herrfennessey/book-recommender-indexer/internal/models/po"
	"github.com/herrfennessey/book-recommender-indexer/internal/models/vo"
	"github.com/herrfennessey/book-recommender-indexer/internal/repositories"
)

// ActivityService reconciles one activity batch: validate, partition by
// owner, filter against cached and authoritative existing activity, write the
// genuinely new records, mirror them, and hand referenced entities to the
// enqueuer for popularity-gated scheduling.
type ActivityService struct {
	gateway  CatalogGateway
	enqueuer *TaskEnqueuerService
	audit    AuditPublisher
	cache    *caches.OwnerActivityCache
	log      *log.Helper
}

// NewActivityService wires the reconciliation use case.
func NewActivityService(gateway CatalogGateway, enqueuer *TaskEnqueuerService, audit AuditPublisher, cache *caches.OwnerActivityCache, logger log.Logger) *ActivityService {
	return &ActivityService{
		gateway:  gateway,
		enqueuer: enqueuer,
		audit:    audit,
		cache:    cache,
		log:      log.NewHelper(logger),
	}
}

// ProcessBatch runs the full reconciliation state machine for one unpacked
// batch. A returned error is always a ServerError: the caller acknowledges
// with a 500 so the bus redelivers, and the existence checks make the
// redelivery idempotent.
func (s *ActivityService) ProcessBatch(ctx context.Context, items []json.RawMessage) (*vo.IngestReceipt, error) {
	records := s.validate(ctx, items)
	referenced := distinctEntityIDs(records)
	ownerOrder, groups := partitionByOwner(records)

	indexed := 0
	written := make([]po.ActivityRecord, 0, len(records))
	for _, ownerID := range ownerOrder {
		group := groups[ownerID]
		fresh, err := s.filterExisting(ctx, ownerID, group)
		if err != nil {
			return nil, err
		}
		if len(fresh) == 0 {
			continue
		}
		count, err := s.gateway.CreateActivityBatch(ctx, fresh)
		switch {
		case err == nil:
			indexed += count
			written = append(written, fresh...)
			s.rememberWritten(ownerID, fresh)
		case errors.Is(err, repositories.ErrClient):
			s.log.WithContext(ctx).Errorw("msg", "activity write rejected, dropping owner group", "owner_id", ownerID, "error", err)
		default:
			return nil, fmt.Errorf("write activity for owner %d: %w", ownerID, err)
		}
	}

	if len(written) > 0 {
		s.audit.SendActivity(ctx, written)
	}

	// Scheduling considers every entity the batch referenced, not only the
	// newly written ones: an entity can be popular enough to scrape even when
	// this particular owner's record was a duplicate.
	tasks, err := s.enqueuer.EnqueueEntitiesIfNeeded(ctx, referenced)
	if err != nil {
		return nil, err
	}
	return &vo.IngestReceipt{Indexed: indexed, Tasks: tasks}, nil
}

func (s *ActivityService) validate(ctx context.Context, items []json.RawMessage) []po.ActivityRecord {
	records := make([]po.ActivityRecord, 0, len(items))
	for _, item := range items {
		rec, err := po.ParseActivityRecord(item)
		if err != nil {
			s.log.WithContext(ctx).Errorw("msg", "dropping invalid activity item", "error", err, "payload", string(item))
			continue
		}
		records = append(records, *rec)
	}
	return records
}

// filterExisting resolves the owner's existing activity set, preferring the
// cache and falling back to the authoritative downstream query, then removes
// records already present. Records duplicated within the group collapse to
// their first occurrence.
func (s *ActivityService) filterExisting(ctx context.Context, ownerID int64, group []po.ActivityRecord) ([]po.ActivityRecord, error) {
	existing, ok := s.cache.Get(ownerID)
	if !ok {
		ids, err := s.gateway.OwnerEntityIDs(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("resolve activity for owner %d: %w", ownerID, err)
		}
		s.cache.Put(ownerID, ids)
		existing, _ = s.cache.Get(ownerID)
	}

	seen := make(map[int64]struct{}, len(group))
	fresh := make([]po.ActivityRecord, 0, len(group))
	for _, rec := range group {
		if _, dup := seen[rec.EntityID]; dup {
			continue
		}
		seen[rec.EntityID] = struct{}{}
		if existing != nil {
			if _, have := existing[rec.EntityID]; have {
				continue
			}
		}
		fresh = append(fresh, rec)
	}
	return fresh, nil
}

// rememberWritten folds just-written entity ids into the cached set so an
// immediate redelivery of the same batch filters them without a refetch.
func (s *ActivityService) rememberWritten(ownerID int64, recs []po.ActivityRecord) {
	existing, ok := s.cache.Get(ownerID)
	ids := make([]int64, 0, len(existing)+len(recs))
	if ok {
		for id := range existing {
			ids = append(ids, id)
		}
	}
	for _, rec := range recs {
		ids = append(ids, rec.EntityID)
	}
	s.cache.Put(ownerID, ids)
}

func distinctEntityIDs(records []po.ActivityRecord) []int64 {
	seen := make(map[int64]struct{}, len(records))
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.EntityID]; ok {
			continue
		}
		seen[rec.EntityID] = struct{}{}
		ids = append(ids, rec.EntityID)
	}
	return ids
}

// partitionByOwner groups records by owner, preserving first-seen owner order
// and relative record order within each group.
func partitionByOwner(records []po.ActivityRecord) ([]int64, map[int64][]po.ActivityRecord) {
	order := make([]int64, 0, len(records))
	groups := make(map[int64][]po.ActivityRecord, len(records))
	for _, rec := range records {
		if _, ok := groups[rec.OwnerID]; !ok {
			order = append(order, rec.OwnerID)
		}
		groups[rec.OwnerID] = append(groups[rec.OwnerID], rec)
	}
	return order, groups
}
