package store

import (
	"context"
	"errors"

	"routeframe/internal/engine"
	"routeframe/internal/model"
)

// Store holds solutions loaded into the service, partitioned by tenant. A
// solution of another tenant is reported as ErrNotFound. Results are never
// mutated after Put.
type Store interface {
	Put(ctx context.Context, tenantID, name string, res *engine.Result) (model.SolutionInfo, error)
	Get(ctx context.Context, tenantID, id string) (model.SolutionInfo, *engine.Result, error)
	List(ctx context.Context, tenantID, cursor string, limit int) (items []model.SolutionInfo, nextCursor string, err error)
	Delete(ctx context.Context, tenantID, id string) error
}

var ErrNotFound = errors.New("not found")
