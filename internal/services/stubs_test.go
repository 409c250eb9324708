package services_test

import (
	"context"
	"fmt"
	"io"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/herrfennessey/book-recommender-indexer/internal/models/po"
	"github.com/herrfennessey/book-recommender-indexer/internal/models/vo"
)

var stdLogger = log.NewStdLogger(io.Discard)

// stubGateway fakes the book recommender API at the interface boundary.
type stubGateway struct {
	createEntityErr map[int64]error
	createdEntities []int64

	activityErrByOwner map[int64]error
	activityBatches    [][]po.ActivityRecord

	indexedIDs  []int64
	indexedErr  error
	existsCalls [][]int64

	ownerIDs   map[int64][]int64
	ownerErr   error
	ownerCalls []int64

	ready bool
}

func (g *stubGateway) CreateEntity(_ context.Context, rec *po.CatalogRecord) error {
	if err, ok := g.createEntityErr[rec.EntityID]; ok {
		return err
	}
	g.createdEntities = append(g.createdEntities, rec.EntityID)
	return nil
}

func (g *stubGateway) CreateActivityBatch(_ context.Context, recs []po.ActivityRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	if err, ok := g.activityErrByOwner[recs[0].OwnerID]; ok {
		return 0, err
	}
	g.activityBatches = append(g.activityBatches, recs)
	return len(recs), nil
}

func (g *stubGateway) EntitiesIndexed(_ context.Context, entityIDs []int64) ([]int64, error) {
	g.existsCalls = append(g.existsCalls, entityIDs)
	if g.indexedErr != nil {
		return nil, g.indexedErr
	}
	set := make(map[int64]struct{}, len(entityIDs))
	for _, id := range entityIDs {
		set[id] = struct{}{}
	}
	var out []int64
	for _, id := range g.indexedIDs {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (g *stubGateway) OwnerEntityIDs(_ context.Context, ownerID int64) ([]int64, error) {
	g.ownerCalls = append(g.ownerCalls, ownerID)
	if g.ownerErr != nil {
		return nil, g.ownerErr
	}
	return g.ownerIDs[ownerID], nil
}

func (g *stubGateway) Ready(context.Context) bool { return g.ready }

// stubPopularity answers from a fixed count table; absent entities are
// omitted, matching the real provider's contract.
type stubPopularity struct {
	counts map[int64]int
}

func (p *stubPopularity) EntityPopularity(_ context.Context, entityIDs []int64) map[int64]int {
	out := make(map[int64]int, len(entityIDs))
	for _, id := range entityIDs {
		if count, ok := p.counts[id]; ok {
			out[id] = count
		}
	}
	return out
}

// stubQueue records submissions and reports configured duplicates.
type stubQueue struct {
	duplicates map[int64]bool
	entityErr  error
	ownerErr   error

	enqueuedEntities []int64
	enqueuedOwners   []int64
	ready            bool
}

func (q *stubQueue) EnqueueEntityScrape(_ context.Context, entityID int64) (vo.EnqueueOutcome, error) {
	if q.entityErr != nil {
		return vo.EnqueueOutcome{}, q.entityErr
	}
	q.enqueuedEntities = append(q.enqueuedEntities, entityID)
	if q.duplicates[entityID] {
		return vo.EnqueueOutcome{Duplicate: true}, nil
	}
	return vo.EnqueueOutcome{Handle: fmt.Sprintf("queues/book-scrape/jobs/%d", entityID)}, nil
}

func (q *stubQueue) EnqueueOwnerScrape(_ context.Context, ownerID int64) (vo.EnqueueOutcome, error) {
	if q.ownerErr != nil {
		return vo.EnqueueOutcome{}, q.ownerErr
	}
	q.enqueuedOwners = append(q.enqueuedOwners, ownerID)
	return vo.EnqueueOutcome{Handle: fmt.Sprintf("queues/profile-scrape/jobs/%d", ownerID)}, nil
}

func (q *stubQueue) Ready(context.Context) bool { return q.ready }

// stubAudit records mirrored batches.
type stubAudit struct {
	catalogSends  [][]*po.CatalogRecord
	activitySends [][]po.ActivityRecord
}

func (a *stubAudit) SendCatalog(_ context.Context, records []*po.CatalogRecord) {
	a.catalogSends = append(a.catalogSends, records)
}

func (a *stubAudit) SendActivity(_ context.Context, records []po.ActivityRecord) {
	a.activitySends = append(a.activitySends, records)
}
