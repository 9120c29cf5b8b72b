package maintenance

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ExportsTask removes exported minutiae files past their retention
type ExportsTask struct {
	dir    string
	config ExportsConfig
	logger *log.Logger
	now    func() time.Time
}

// NewExportsTask creates a pruning task for the exports folder at dir
func NewExportsTask(dir string, config ExportsConfig, logger *log.Logger) *ExportsTask {
	if logger == nil {
		logger = log.Default()
	}
	return &ExportsTask{dir: dir, config: config, logger: logger, now: time.Now}
}

func (t *ExportsTask) Name() string {
	return "exports"
}

func (t *ExportsTask) Description() string {
	return fmt.Sprintf("Remove exports older than %d days", t.config.RetentionDays)
}

func (t *ExportsTask) Execute(ctx context.Context) TaskResult {
	if t.config.RetentionDays <= 0 {
		return TaskResult{Success: true, Message: "Export pruning disabled in configuration"}
	}

	cutoff := t.now().AddDate(0, 0, -t.config.RetentionDays)
	result := TaskResult{Success: true}

	err := filepath.WalkDir(t.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == t.dir {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		result.RecordsProcessed++
		result.SpaceReclaimed += info.Size()
		return nil
	})
	if err != nil {
		return TaskResult{Message: "Export pruning failed", Error: err, RecordsProcessed: result.RecordsProcessed}
	}

	result.Message = fmt.Sprintf("Removed %d exports", result.RecordsProcessed)
	return result
}
