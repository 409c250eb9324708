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

// CatalogService reconciles one catalog batch: validate, drop records already
// indexed downstream, write the rest once each, and mirror the new rows.
// Catalog records are immutable once written; this pipeline never updates.
type CatalogService struct {
	gateway CatalogGateway
	audit   AuditPublisher
	cache   *caches.EntityExistsCache
	log     *log.Helper
}

// NewCatalogService wires the catalog ingestion use case.
func NewCatalogService(gateway CatalogGateway, audit AuditPublisher, cache *caches.EntityExistsCache, logger log.Logger) *CatalogService {
	return &CatalogService{
		gateway: gateway,
		audit:   audit,
		cache:   cache,
		log:     log.NewHelper(logger),
	}
}

// ProcessBatch runs validation, existence filtering and per-item writes for
// one unpacked catalog batch. A returned error is a ServerError and aborts
// the batch for redelivery.
func (s *CatalogService) ProcessBatch(ctx context.Context, items []json.RawMessage) (*vo.IngestReceipt, error) {
	records := s.validate(ctx, items)

	unknown := make([]*po.CatalogRecord, 0, len(records))
	unknownIDs := make([]int64, 0, len(records))
	for _, rec := range records {
		if s.cache.Exists(rec.EntityID) {
			continue
		}
		unknown = append(unknown, rec)
		unknownIDs = append(unknownIDs, rec.EntityID)
	}

	already, err := s.gateway.EntitiesIndexed(ctx, unknownIDs)
	if err != nil {
		return nil, fmt.Errorf("catalog batch exists check: %w", err)
	}
	alreadySet := make(map[int64]struct{}, len(already))
	for _, id := range already {
		alreadySet[id] = struct{}{}
		s.cache.MarkExists(id)
	}

	indexed := 0
	written := make([]*po.CatalogRecord, 0, len(unknown))
	for _, rec := range unknown {
		if _, ok := alreadySet[rec.EntityID]; ok {
			continue
		}
		err := s.gateway.CreateEntity(ctx, rec)
		switch {
		case err == nil:
			indexed++
			written = append(written, rec)
			s.cache.MarkExists(rec.EntityID)
		case errors.Is(err, repositories.ErrClient):
			s.log.WithContext(ctx).Errorw("msg", "catalog write rejected, dropping record", "entity_id", rec.EntityID, "error", err)
		default:
			return nil, fmt.Errorf("write entity %d: %w", rec.EntityID, err)
		}
	}

	if len(written) > 0 {
		s.audit.SendCatalog(ctx, written)
	}
	return &vo.IngestReceipt{Indexed: indexed, Tasks: []string{}}, nil
}

// validate parses raw items, dropping invalid ones and collapsing duplicate
// entity ids to their first occurrence.
func (s *CatalogService) validate(ctx context.Context, items []json.RawMessage) []*po.CatalogRecord {
	seen := make(map[int64]struct{}, len(items))
	records := make([]*po.CatalogRecord, 0, len(items))
	for _, item := range items {
		rec, err := po.ParseCatalogRecord(item)
		if err != nil {
			s.log.WithContext(ctx).Errorw("msg", "dropping invalid catalog item", "error", err, "payload", string(item))
			continue
		}
		if _, dup := seen[rec.EntityID]; dup {
			continue
		}
		seen[rec.EntityID] = struct{}{}
		records = append(records, rec)
	}
	return records
}
