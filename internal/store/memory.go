package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"routeframe/internal/engine"
	"routeframe/internal/model"
)

type memEntry struct {
	info model.SolutionInfo
	res  *engine.Result
}

// Memory is an in-process Store. Insertion order is the listing order.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]memEntry
	byTenant map[string][]string
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]memEntry{}, byTenant: map[string][]string{}, now: time.Now}
}

func (m *Memory) Put(ctx context.Context, tenantID, name string, res *engine.Result) (model.SolutionInfo, error) {
	if res == nil {
		return model.SolutionInfo{}, errors.New("nil solution")
	}
	if tenantID == "" {
		return model.SolutionInfo{}, errors.New("tenant required")
	}
	info := model.SolutionInfo{
		ID:         uuid.New().String(),
		Tenant:     tenantID,
		Name:       name,
		CreatedAt:  m.now().UTC().Format(time.RFC3339),
		Code:       res.Code,
		Vehicles:   len(res.Routes),
		Steps:      res.StepCount(),
		Unassigned: len(res.Unassigned),
		Cost:       res.Summary.Cost,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[info.ID] = memEntry{info: info, res: res}
	m.byTenant[tenantID] = append(m.byTenant[tenantID], info.ID)
	return info, nil
}

// lookup must be called with m.mu held.
func (m *Memory) lookup(tenantID, id string) (memEntry, bool) {
	e, ok := m.entries[id]
	if !ok || e.info.Tenant != tenantID {
		return memEntry{}, false
	}
	return e, true
}

func (m *Memory) Get(ctx context.Context, tenantID, id string) (model.SolutionInfo, *engine.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(tenantID, id)
	if !ok {
		return model.SolutionInfo{}, nil, ErrNotFound
	}
	return e.info, e.res, nil
}

// List pages through a tenant's entries; cursor is the id of the last entry
// of the previous page.
func (m *Memory) List(ctx context.Context, tenantID, cursor string, limit int) ([]model.SolutionInfo, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	ids := m.byTenant[tenantID]
	start := 0
	if cursor != "" {
		start = -1
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, "", ErrNotFound
		}
	}
	out := []model.SolutionInfo{}
	for i := start; i < len(ids) && len(out) < limit; i++ {
		out = append(out, m.entries[ids[i]].info)
	}
	var next string
	if len(out) == limit && start+limit < len(ids) {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (m *Memory) Delete(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(tenantID, id); !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	ids := m.byTenant[tenantID]
	for i, oid := range ids {
		if oid == id {
			m.byTenant[tenantID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(m.byTenant[tenantID]) == 0 {
		delete(m.byTenant, tenantID)
	}
	return nil
}
