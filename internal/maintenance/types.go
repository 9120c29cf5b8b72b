// Package maintenance runs periodic housekeeping while the SSH server is
// up: catalog optimization and pruning of old exports.
package maintenance

import (
	"context"
	"time"
)

// Task is a maintenance job the scheduler can run
type Task interface {
	Name() string
	Description() string
	Execute(ctx context.Context) TaskResult
}

// TaskResult represents the result of executing a maintenance task
type TaskResult struct {
	Success          bool          `json:"success"`
	Duration         time.Duration `json:"duration"`
	Message          string        `json:"message"`
	RecordsProcessed int           `json:"records_processed,omitempty"`
	SpaceReclaimed   int64         `json:"space_reclaimed,omitempty"`
	Error            error         `json:"error,omitempty"`
}

// TaskStatus represents the status of a maintenance task
type TaskStatus struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	LastRun     time.Time  `json:"last_run"`
	LastResult  TaskResult `json:"last_result"`
	Schedule    string     `json:"schedule"`
}

// Config represents maintenance configuration
type Config struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Schedule is a five-field cron expression, default "0 3 * * *"
	Schedule string `json:"schedule" yaml:"schedule"`

	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Exports ExportsConfig `json:"exports" yaml:"exports"`
}

// CatalogConfig configures catalog database maintenance
type CatalogConfig struct {
	VacuumEnabled bool `json:"vacuum_enabled" yaml:"vacuum_enabled"`
	// VacuumThresholdMB skips VACUUM on smaller databases
	VacuumThresholdMB int64 `json:"vacuum_threshold_mb" yaml:"vacuum_threshold_mb"`
	OptimizeIndexes   bool  `json:"optimize_indexes" yaml:"optimize_indexes"`
}

// ExportsConfig configures pruning of the exports folder
type ExportsConfig struct {
	// RetentionDays removes exports older than this; zero keeps them all
	RetentionDays int `json:"retention_days" yaml:"retention_days"`
}

// DefaultSchedule runs maintenance daily at 3 AM
const DefaultSchedule = "0 3 * * *"

// DefaultConfig returns the default maintenance configuration
func DefaultConfig() Config {
	return Config{
		Schedule: DefaultSchedule,
		Catalog: CatalogConfig{
			VacuumEnabled:     true,
			VacuumThresholdMB: 10,
			OptimizeIndexes:   true,
		},
	}
}
