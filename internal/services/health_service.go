package services

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
)

// HealthService aggregates readiness of the external collaborators.
type HealthService struct {
	gateway CatalogGateway
	queue   TaskQueue
	log     *log.Helper
}

// NewHealthService wires the readiness probe.
func NewHealthService(gateway CatalogGateway, queue TaskQueue, logger log.Logger) *HealthService {
	return &HealthService{
		gateway: gateway,
		queue:   queue,
		log:     log.NewHelper(logger),
	}
}

// Check reports whether the downstream API and the scrape queue are both
// reachable.
func (s *HealthService) Check(ctx context.Context) bool {
	healthy := true
	if !s.gateway.Ready(ctx) {
		s.log.WithContext(ctx).Errorw("msg", "downstream API not ready")
		healthy = false
	}
	if !s.queue.Ready(ctx) {
		s.log.WithContext(ctx).Errorw("msg", "scrape queue not ready")
		healthy = false
	}
	return healthy
}
