package models

// ErrorResponse is the body written for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthCheckResponse returns the health check response duh
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// AdminTokenResponse is returned after the administrator authenticates
type AdminTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// FeedEvent is pushed to connected admin dashboards
type FeedEvent struct {
	Type   string `json:"type"`
	Report Report `json:"report"`
}

// Feed event types
const (
	FeedReportCreated = "report.created"
	FeedReportStatus  = "report.status"
)
