package webhooks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Delivery statuses.
const (
	StatusPending   = "pending"
	StatusRetry     = "retry"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

type Delivery struct {
	ID            string
	EventType     string
	URL           string
	Secret        string
	Payload       []byte
	Status        string
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
}

// Queue persists pending webhook deliveries for the worker.
type Queue interface {
	Enqueue(ctx context.Context, eventType, url, secret string, payload []byte) (string, error)
	FetchDue(ctx context.Context, limit int) ([]Delivery, error)
	Mark(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error
	Fail(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error
}

// MemoryQueue is an in-process Queue. Fetch order is enqueue order.
type MemoryQueue struct {
	mu         sync.Mutex
	deliveries map[string]*Delivery
	order      []string
	now        func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{deliveries: map[string]*Delivery{}, now: time.Now}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, eventType, url, secret string, payload []byte) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := uuid.New().String()
	q.deliveries[id] = &Delivery{ID: id, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: StatusPending, NextAttemptAt: q.now()}
	q.order = append(q.order, id)
	return id, nil
}

func (q *MemoryQueue) FetchDue(ctx context.Context, limit int) ([]Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	out := []Delivery{}
	for _, id := range q.order {
		d := q.deliveries[id]
		if (d.Status == StatusPending || d.Status == StatusRetry) && !d.NextAttemptAt.After(now) {
			out = append(out, *d)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (q *MemoryQueue) Mark(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	d := q.deliveries[id]
	if d == nil {
		return nil
	}
	d.Attempts++
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = StatusDelivered
		return nil
	}
	d.Status = StatusRetry
	d.LastError = lastError
	if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	} else {
		d.NextAttemptAt = q.now().Add(time.Minute)
	}
	return nil
}

func (q *MemoryQueue) Fail(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if d := q.deliveries[id]; d != nil {
		d.Attempts++
		d.Status = StatusFailed
		d.LastError = lastError
		d.ResponseCode = responseCode
		d.LatencyMs = latencyMs
	}
	return nil
}

// Get returns a snapshot of one delivery.
func (q *MemoryQueue) Get(id string) (Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	d := q.deliveries[id]
	if d == nil {
		return Delivery{}, false
	}
	return *d, true
}
