package model

// Request and response shapes of the HTTP API.

// SolutionInfo describes a registered solution.
type SolutionInfo struct {
	ID         string `json:"id"`
	Tenant     string `json:"tenant"`
	Name       string `json:"name,omitempty"`
	CreatedAt  string `json:"createdAt"`
	Code       int    `json:"code"`
	Vehicles   int    `json:"vehicles"`
	Steps      int    `json:"steps"`
	Unassigned int    `json:"unassigned"`
	Cost       int64  `json:"cost"`
}

type SolutionList struct {
	Items      []SolutionInfo `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// ExportRequest asks for the canonical JSON of a solution to be written
// below the configured export directory.
type ExportRequest struct {
	Path   string `json:"path"`
	Atomic *bool  `json:"atomic,omitempty"` // nil uses the configured default
}

type ExportResult struct {
	SolutionID string `json:"solutionId"`
	Path       string `json:"path"`
	Bytes      int    `json:"bytes"`
	Atomic     bool   `json:"atomic"`
	TS         string `json:"ts"`
}

// Event is published on the broker and relayed to websocket clients and webhooks.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Tenant     string         `json:"tenant"`
	SolutionID string         `json:"solutionId"`
	TS         string         `json:"ts"`
	Data       map[string]any `json:"data,omitempty"`
}

const (
	EventSolutionLoaded   = "solution.loaded"
	EventSolutionExported = "solution.exported"
	EventSolutionDeleted  = "solution.deleted"
)
