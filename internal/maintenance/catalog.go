package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// CatalogTask vacuums and analyzes the catalog database
type CatalogTask struct {
	db     *sql.DB
	config CatalogConfig
	logger *log.Logger
}

// NewCatalogTask creates a catalog maintenance task
func NewCatalogTask(db *sql.DB, config CatalogConfig, logger *log.Logger) *CatalogTask {
	if logger == nil {
		logger = log.Default()
	}
	return &CatalogTask{db: db, config: config, logger: logger}
}

func (t *CatalogTask) Name() string {
	return "catalog"
}

func (t *CatalogTask) Description() string {
	return "Optimize the catalog database (VACUUM, ANALYZE)"
}

// Execute runs VACUUM when the database is over the threshold, then
// refreshes the query planner statistics
func (t *CatalogTask) Execute(ctx context.Context) TaskResult {
	if !t.config.VacuumEnabled && !t.config.OptimizeIndexes {
		return TaskResult{Success: true, Message: "Catalog maintenance disabled in configuration"}
	}

	before, err := t.size(ctx)
	if err != nil {
		return TaskResult{Message: "Failed to get catalog size", Error: err}
	}

	result := TaskResult{Success: true}
	if t.config.VacuumEnabled && before/(1024*1024) >= t.config.VacuumThresholdMB {
		t.logger.Println("[Maintenance] Starting VACUUM on catalog...")
		if _, err := t.db.ExecContext(ctx, "VACUUM"); err != nil {
			return TaskResult{Message: "VACUUM failed", Error: err}
		}
		after, err := t.size(ctx)
		if err == nil && after < before {
			result.SpaceReclaimed = before - after
		}
	}

	if t.config.OptimizeIndexes {
		if _, err := t.db.ExecContext(ctx, "ANALYZE"); err != nil {
			return TaskResult{Message: "ANALYZE failed", Error: err}
		}
		if _, err := t.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
			t.logger.Printf("[Maintenance] Warning: PRAGMA optimize failed: %v", err)
		}
	}

	result.Message = fmt.Sprintf("Catalog size: %.1f MB", float64(before)/(1024*1024))
	if result.SpaceReclaimed > 0 {
		result.Message += fmt.Sprintf(", reclaimed %.1f MB", float64(result.SpaceReclaimed)/(1024*1024))
	}
	return result
}

func (t *CatalogTask) size(ctx context.Context) (int64, error) {
	var size int64
	err := t.db.QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&size)
	return size, err
}
