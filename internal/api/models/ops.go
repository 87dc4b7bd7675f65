package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status     HealthStatus      `json:"status"`
	Time       Timestamp         `json:"time"`
	Version    string            `json:"version"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	Providers  []ProviderStatus  `json:"providers"`
	Cache      CacheStatus       `json:"cache"`
	Sessions   int               `json:"sessions"`
}

// SubsystemStatus represents the status of a subsystem.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	BreakerState  string       `json:"breakerState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}

// CacheStatus reports archive cache counters.
type CacheStatus struct {
	Entries      int   `json:"entries"`
	FreshEntries int   `json:"freshEntries"`
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	StaleServed  int64 `json:"staleServed"`
}

// CacheInvalidateResponse is returned by POST /v1/admin/cache/invalidate.
type CacheInvalidateResponse struct {
	Removed int `json:"removed"`
}

// PrefetchResponse is returned by POST /v1/admin/prefetch.
type PrefetchResponse struct {
	Targets   int     `json:"targets"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Duration  float64 `json:"durationSeconds"`
}

// PurgeResponse is returned by DELETE /v1/admin/history.
type PurgeResponse struct {
	Removed int64 `json:"removed"`
}
