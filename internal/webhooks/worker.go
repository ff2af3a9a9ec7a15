package webhooks

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"routeframe/internal/logging"
	"routeframe/internal/metrics"
)

// Worker polls the queue and posts due deliveries, retrying failures with
// exponential backoff until MaxAttempts is reached.
type Worker struct {
	Queue       Queue
	HTTP        *http.Client
	MaxAttempts int
	Interval    time.Duration
	Logger      *slog.Logger
}

func NewWorker(q Queue, maxAttempts int, logger *slog.Logger) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Worker{
		Queue:       q,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		MaxAttempts: maxAttempts,
		Interval:    time.Second,
		Logger:      logger,
	}
}

// Run processes deliveries until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOnce(ctx)
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	items, err := w.Queue.FetchDue(ctx, 50)
	if err != nil {
		logging.LogError(w.Logger, "webhook fetch failed", err)
		return
	}
	for _, it := range items {
		w.deliver(ctx, it)
	}
}

func (w *Worker) deliver(ctx context.Context, it Delivery) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, it.URL, bytes.NewReader(it.Payload))
	if err != nil {
		_ = w.Queue.Fail(ctx, it.ID, err.Error(), 0, 0)
		metrics.WebhookDeliveries.WithLabelValues(it.EventType, StatusFailed).Inc()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEventType, it.EventType)
	if it.Secret != "" {
		req.Header.Set(HeaderSignature, SignHMAC(it.Secret, it.Payload))
	}

	start := time.Now()
	resp, err := w.HTTP.Do(req)
	latency := int(time.Since(start).Milliseconds())
	code := 0
	success := false
	lastErr := ""
	if err != nil {
		lastErr = err.Error()
	} else {
		code = resp.StatusCode
		_ = resp.Body.Close()
		success = code >= 200 && code < 300
		if !success {
			lastErr = "unexpected status " + strconv.Itoa(code)
		}
	}

	status := StatusDelivered
	switch {
	case success:
		_ = w.Queue.Mark(ctx, it.ID, true, nil, "", code, latency)
	case it.Attempts+1 >= w.MaxAttempts:
		status = StatusFailed
		_ = w.Queue.Fail(ctx, it.ID, lastErr, code, latency)
		logging.LogOperation(w.Logger, "webhook_failed",
			slog.String("delivery_id", it.ID),
			slog.String("event_type", it.EventType),
			slog.Int("attempts", it.Attempts+1),
			slog.String("error", lastErr))
	default:
		status = StatusRetry
		next := time.Now().Add(nextBackoff(it.Attempts))
		_ = w.Queue.Mark(ctx, it.ID, false, &next, lastErr, code, latency)
	}
	metrics.WebhookDeliveries.WithLabelValues(it.EventType, status).Inc()
	metrics.WebhookLatency.WithLabelValues(it.EventType, status).Observe(float64(latency))
}

func nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 10 {
		attempts = 10
	}
	base := time.Second * time.Duration(1<<attempts)
	if base > time.Hour {
		base = time.Hour
	}
	return base
}
