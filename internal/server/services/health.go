package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
)

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

type Health struct {
	Status  string
	Version string
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthService struct {
	db      Pinger
	timeout time.Duration
}

func NewHealthService(db Pinger) *HealthService {
	return &HealthService{db: db, timeout: 2 * time.Second}
}

// Check pings the database. The error, if any, explains an unhealthy result.
func (s *HealthService) Check(ctx context.Context) (Health, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return Health{Status: HealthStatusUnhealthy, Version: common.Version}, err
	}
	return Health{Status: HealthStatusHealthy, Version: common.Version}, nil
}
