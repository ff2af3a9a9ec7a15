package webhooks

import (
	"context"
	"encoding/json"

	"routeframe/internal/model"
)

// Publisher turns service events into queued deliveries for one endpoint.
// A Publisher with an empty URL drops every event.
type Publisher struct {
	Queue  Queue
	URL    string
	Secret string
	// Types limits which event types are delivered; empty means all.
	Types map[string]bool
}

func NewPublisher(q Queue, url, secret string, types ...string) *Publisher {
	p := &Publisher{Queue: q, URL: url, Secret: secret}
	if len(types) > 0 {
		p.Types = map[string]bool{}
		for _, t := range types {
			p.Types[t] = true
		}
	}
	return p
}

// Emit enqueues evt and returns the delivery id, or "" when it was filtered.
func (p *Publisher) Emit(ctx context.Context, evt model.Event) (string, error) {
	if p == nil || p.URL == "" || p.Queue == nil {
		return "", nil
	}
	if p.Types != nil && !p.Types[evt.Type] {
		return "", nil
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return "", err
	}
	return p.Queue.Enqueue(ctx, evt.Type, p.URL, p.Secret, body)
}
