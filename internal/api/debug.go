package api

import (
	"net/http"
	"time"

	"routeframe/internal/buildinfo"
)

// DebugHandler reports build info and non-secret settings.
func (s *Server) DebugHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	_, redis := s.Broker.(*RedisBroker)
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  s.now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"addr":               s.Cfg.Server.Addr,
			"authMode":           s.Cfg.Auth.Mode,
			"exportDir":          s.Cfg.Export.Dir,
			"exportAtomic":       s.Cfg.Export.Atomic,
			"rateRps":            s.Cfg.Rate.RPS,
			"rateBurst":          s.Cfg.Rate.Burst,
			"webhookMaxAttempts": s.Cfg.Webhook.MaxAttempts,
			"hasWebhookUrl":      s.Cfg.Webhook.URL != "",
			"redisBroker":        redis,
		},
	})
}
