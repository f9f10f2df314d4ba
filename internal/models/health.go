package models

import "time"

// HealthMetadata carries the trigger timestamps reported by health checks.
type HealthMetadata struct {
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	NextRunAt     *time.Time `json:"next_run_at,omitempty"`
	Running       bool       `json:"running"`
} // @name HealthMetadata

// HealthCheck is the result of a single health indicator.
type HealthCheck struct {
	Name     string         `json:"name" example:"aggregation"`
	Healthy  bool           `json:"healthy" example:"true"`
	Metadata HealthMetadata `json:"metadata"`
	Error    string         `json:"error,omitempty"`
} // @name HealthCheck
