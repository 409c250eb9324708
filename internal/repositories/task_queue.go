package repositories

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/herrfennessey/book-recommender-indexer/internal/conf"
	"github.com/herrfennessey/book-recommender-indexer/internal/models/po"
	"github.com/herrfennessey/book-recommender-indexer/internal/models/vo"
)

// RiverTaskQueue schedules scrape jobs on the durable queue. This service is
// insert-only; the scraper fleet runs the workers. Job identity is the job
// kind plus its args, and the queue rejects a duplicate identity as a no-op
// rather than an error.
type RiverTaskQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	queue  string
	log    *log.Helper
}

// NewRiverTaskQueue builds an insert-only River client on the shared pool.
func NewRiverTaskQueue(pool *pgxpool.Pool, bc *conf.Bootstrap, logger log.Logger) (*RiverTaskQueue, error) {
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		return nil, fmt.Errorf("new river client: %w", err)
	}
	return &RiverTaskQueue{
		client: client,
		pool:   pool,
		queue:  bc.Queue.Name,
		log:    log.NewHelper(logger),
	}, nil
}

// EnqueueEntityScrape schedules a full scrape of one book.
func (q *RiverTaskQueue) EnqueueEntityScrape(ctx context.Context, entityID int64) (vo.EnqueueOutcome, error) {
	return q.insert(ctx, po.EntityScrapeArgs{EntityID: entityID})
}

// EnqueueOwnerScrape schedules a scrape of one reader profile.
func (q *RiverTaskQueue) EnqueueOwnerScrape(ctx context.Context, ownerID int64) (vo.EnqueueOutcome, error) {
	return q.insert(ctx, po.OwnerScrapeArgs{OwnerID: ownerID})
}

type scrapeJobArgs interface {
	river.JobArgs
	DomainKey() string
}

func (q *RiverTaskQueue) insert(ctx context.Context, args scrapeJobArgs) (vo.EnqueueOutcome, error) {
	res, err := q.client.Insert(ctx, args, &river.InsertOpts{
		Queue: q.queue,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return vo.EnqueueOutcome{}, fmt.Errorf("enqueue %s: %w", args.DomainKey(), err)
	}
	if res.UniqueSkippedAsDuplicate {
		q.log.WithContext(ctx).Infow("msg", "scrape job already queued", "domain_key", args.DomainKey())
		return vo.EnqueueOutcome{Duplicate: true}, nil
	}
	handle := fmt.Sprintf("queues/%s/jobs/%d", q.queue, res.Job.ID)
	q.log.WithContext(ctx).Infow("msg", "scrape job enqueued", "domain_key", args.DomainKey(), "handle", handle)
	return vo.EnqueueOutcome{Handle: handle}, nil
}

// Ready reports whether the queue's database is reachable.
func (q *RiverTaskQueue) Ready(ctx context.Context) bool {
	if err := q.pool.Ping(ctx); err != nil {
		q.log.WithContext(ctx).Errorw("msg", "queue readiness probe failed", "error", err)
		return false
	}
	return true
}

// NewPgxPool opens the connection pool backing the scrape queue.
func NewPgxPool(bc *conf.Bootstrap) (*pgxpool.Pool, func(), error) {
	pool, err := pgxpool.New(context.Background(), bc.Queue.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open queue pool: %w", err)
	}
	return pool, pool.Close, nil
}
