// Package repositories contains the I/O adapters behind the service-layer
// interfaces: the book recommender HTTP API, the popularity endpoint, the
// River scrape queue and the Pub/Sub audit topics.
package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/herrfennessey/book-recommender-indexer/internal/conf"
	"github.com/herrfennessey/book-recommender-indexer/internal/models/po"
)

// Error taxonomy for downstream calls. A ClientError drops the offending
// item and lets the batch continue; a ServerError aborts the batch so the
// bus redelivers it.
var (
	ErrClient = errors.New("downstream client error")
	ErrServer = errors.New("downstream server error")
)

// CatalogAPIRepository wraps every write and existence call against the book
// recommender API.
type CatalogAPIRepository struct {
	baseURL    string
	httpClient *http.Client
	log        *log.Helper
}

// NewCatalogAPIRepository builds the downstream adapter from config.
func NewCatalogAPIRepository(bc *conf.Bootstrap, logger log.Logger) *CatalogAPIRepository {
	return &CatalogAPIRepository{
		baseURL:    bc.Downstream.BaseURL,
		httpClient: &http.Client{Timeout: bc.Downstream.Timeout.AsDuration()},
		log:        log.NewHelper(logger),
	}
}

// CreateEntity writes one catalog record. Records are immutable once
// written; the API treats a repeated PUT for the same id as a no-op.
func (r *CatalogAPIRepository) CreateEntity(ctx context.Context, rec *po.CatalogRecord) error {
	url := fmt.Sprintf("%s/entities/%d", r.baseURL, rec.EntityID)
	status, body, err := r.do(ctx, http.MethodPut, url, rec)
	if err != nil {
		return fmt.Errorf("%w: put entity %d: %v", ErrServer, rec.EntityID, err)
	}
	switch {
	case status < 300:
		r.log.WithContext(ctx).Infow("msg", "indexed catalog record", "entity_id", rec.EntityID)
		return nil
	case status < 500:
		r.log.WithContext(ctx).Errorw("msg", "entity write rejected", "entity_id", rec.EntityID, "status", status, "body", string(body))
		return fmt.Errorf("%w: put entity %d: status %d", ErrClient, rec.EntityID, status)
	default:
		r.log.WithContext(ctx).Errorw("msg", "entity write failed", "entity_id", rec.EntityID, "status", status, "body", string(body))
		return fmt.Errorf("%w: put entity %d: status %d", ErrServer, rec.EntityID, status)
	}
}

type activityBatchRequest struct {
	ActivityRecords []po.ActivityRecord `json:"activity_records"`
}

type indexedResponse struct {
	Indexed int `json:"indexed"`
}

// CreateActivityBatch writes one owner's new activity records in a single
// call and returns the downstream indexed count. Partial server-side
// application is not assumed: any 5xx fails the whole call.
func (r *CatalogAPIRepository) CreateActivityBatch(ctx context.Context, recs []po.ActivityRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	url := r.baseURL + "/activity/batch/create"
	status, body, err := r.do(ctx, http.MethodPost, url, activityBatchRequest{ActivityRecords: recs})
	if err != nil {
		return 0, fmt.Errorf("%w: create activity batch: %v", ErrServer, err)
	}
	switch {
	case status < 300:
		var resp indexedResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return 0, fmt.Errorf("%w: decode activity batch response: %v", ErrServer, err)
		}
		r.log.WithContext(ctx).Infow("msg", "indexed activity records", "count", resp.Indexed)
		return resp.Indexed, nil
	case status == http.StatusTooManyRequests:
		// Rate limited on a write: the batch must be redelivered whole.
		return 0, fmt.Errorf("%w: create activity batch: status 429", ErrServer)
	case status < 500:
		r.log.WithContext(ctx).Errorw("msg", "activity batch rejected", "status", status, "body", string(body))
		return 0, fmt.Errorf("%w: create activity batch: status %d", ErrClient, status)
	default:
		r.log.WithContext(ctx).Errorw("msg", "activity batch failed", "status", status, "body", string(body))
		return 0, fmt.Errorf("%w: create activity batch: status %d", ErrServer, status)
	}
}

type entityIDsPayload struct {
	EntityIDs []int64 `json:"entity_ids"`
}

// EntitiesIndexed returns the subset of ids that already exist downstream.
// A 4xx answer means "none of them", which is a valid business answer, not
// an error.
func (r *CatalogAPIRepository) EntitiesIndexed(ctx context.Context, entityIDs []int64) ([]int64, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	url := r.baseURL + "/entities/batch/exists"
	status, body, err := r.do(ctx, http.MethodPost, url, entityIDsPayload{EntityIDs: entityIDs})
	if err != nil {
		return nil, fmt.Errorf("%w: entities batch exists: %v", ErrServer, err)
	}
	switch {
	case status < 300:
		var resp entityIDsPayload
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: decode batch exists response: %v", ErrServer, err)
		}
		return resp.EntityIDs, nil
	case status < 500:
		r.log.WithContext(ctx).Infow("msg", "batch exists returned 4xx, treating as none indexed", "status", status)
		return nil, nil
	default:
		r.log.WithContext(ctx).Errorw("msg", "batch exists failed", "status", status, "body", string(body))
		return nil, fmt.Errorf("%w: entities batch exists: status %d", ErrServer, status)
	}
}

// OwnerEntityIDs returns every entity id the owner already has activity for.
// 404 (or any 4xx) means the owner has no activity yet.
func (r *CatalogAPIRepository) OwnerEntityIDs(ctx context.Context, ownerID int64) ([]int64, error) {
	url := fmt.Sprintf("%s/owners/%d/entity-ids", r.baseURL, ownerID)
	status, body, err := r.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: owner %d entity ids: %v", ErrServer, ownerID, err)
	}
	switch {
	case status < 300:
		var resp entityIDsPayload
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: decode owner entity ids: %v", ErrServer, err)
		}
		return resp.EntityIDs, nil
	case status < 500:
		r.log.WithContext(ctx).Infow("msg", "owner has no activity yet", "owner_id", ownerID, "status", status)
		return []int64{}, nil
	default:
		r.log.WithContext(ctx).Errorw("msg", "owner entity ids failed", "owner_id", ownerID, "status", status, "body", string(body))
		return nil, fmt.Errorf("%w: owner %d entity ids: status %d", ErrServer, ownerID, status)
	}
}

// Ready probes the downstream API root for the health endpoint.
func (r *CatalogAPIRepository) Ready(ctx context.Context) bool {
	status, _, err := r.do(ctx, http.MethodGet, r.baseURL+"/", nil)
	if err != nil {
		r.log.WithContext(ctx).Errorw("msg", "downstream readiness probe failed", "error", err)
		return false
	}
	return status < 400
}

func (r *CatalogAPIRepository) do(ctx context.Context, method, url string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}
