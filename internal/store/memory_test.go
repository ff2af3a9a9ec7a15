package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routeframe/internal/engine"
)

func twoStepResult() *engine.Result {
	return &engine.Result{
		Summary: engine.Summary{Cost: 12},
		Routes: []engine.Route{{Vehicle: 1, Steps: []engine.Step{
			{Type: engine.StepStart},
			{Type: engine.StepEnd},
		}}},
		Unassigned: []engine.Job{{ID: 3}},
	}
}

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	info, err := m.Put(ctx, "t1", "monday", twoStepResult())
	require.NoError(t, err)

	_, err = uuid.Parse(info.ID)
	require.NoError(t, err)
	assert.Equal(t, "t1", info.Tenant)
	assert.Equal(t, "monday", info.Name)
	assert.Equal(t, 1, info.Vehicles)
	assert.Equal(t, 2, info.Steps)
	assert.Equal(t, 1, info.Unassigned)
	assert.Equal(t, int64(12), info.Cost)

	got, res, err := m.Get(ctx, "t1", info.ID)
	require.NoError(t, err)
	assert.Equal(t, info, got)
	assert.Equal(t, 2, res.StepCount())

	_, _, err = m.Get(ctx, "t1", "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = m.Put(ctx, "t1", "nil", nil)
	assert.Error(t, err)
	_, err = m.Put(ctx, "", "no tenant", twoStepResult())
	assert.Error(t, err)
}

func TestMemoryListPaging(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var ids []string
	for i := 0; i < 5; i++ {
		info, err := m.Put(ctx, "t1", "", twoStepResult())
		require.NoError(t, err)
		ids = append(ids, info.ID)
	}

	page, next, err := m.List(ctx, "t1", "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[0], page[0].ID)
	assert.Equal(t, ids[1], next)

	page, next, err = m.List(ctx, "t1", next, 2)
	require.NoError(t, err)
	assert.Equal(t, ids[2], page[0].ID)

	page, next, err = m.List(ctx, "t1", next, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Empty(t, next)

	_, _, err = m.List(ctx, "t1", "nope", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, _ := m.Put(ctx, "t1", "a", twoStepResult())
	b, _ := m.Put(ctx, "t1", "b", twoStepResult())

	require.NoError(t, m.Delete(ctx, "t1", a.ID))
	assert.ErrorIs(t, m.Delete(ctx, "t1", a.ID), ErrNotFound)

	items, _, err := m.List(ctx, "t1", "", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, b.ID, items[0].ID)
}

func TestMemoryTenantIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, err := m.Put(ctx, "acme", "a", twoStepResult())
	require.NoError(t, err)

	_, _, err = m.Get(ctx, "globex", a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, "globex", a.ID), ErrNotFound)

	items, _, err := m.List(ctx, "globex", "", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
	_, _, err = m.List(ctx, "globex", a.ID, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	// still present for its owner
	_, _, err = m.Get(ctx, "acme", a.ID)
	assert.NoError(t, err)
}
