package maintenance

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs registered tasks on a cron schedule
type Scheduler struct {
	config  Config
	cron    *cron.Cron
	tasks   []Task
	status  map[string]TaskStatus
	mu      sync.RWMutex
	running bool
	logger  *log.Logger
}

// NewScheduler creates a new maintenance scheduler
func NewScheduler(config Config, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}

	return &Scheduler{
		config: config,
		cron:   cron.New(),
		status: make(map[string]TaskStatus),
		logger: logger,
	}
}

// ValidateSchedule checks a cron expression
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// RegisterTask registers a maintenance task with the scheduler
func (s *Scheduler) RegisterTask(task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = append(s.tasks, task)
	s.status[task.Name()] = TaskStatus{
		Name:        task.Name(),
		Description: task.Description(),
		Schedule:    s.config.Schedule,
	}

	s.logger.Printf("[Maintenance] Registered task: %s", task.Name())
}

// Start begins the maintenance scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if !s.config.Enabled {
		s.logger.Println("[Maintenance] Scheduler disabled in configuration")
		return nil
	}

	// Tasks run in registration order within one job
	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunNow(context.Background()); err != nil {
			s.logger.Printf("[Maintenance] Run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Printf("[Maintenance] Scheduler started with %d tasks, schedule: %s", len(s.tasks), s.config.Schedule)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	s.running = false

	select {
	case <-ctx.Done():
		s.logger.Println("[Maintenance] Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		s.logger.Println("[Maintenance] Scheduler stop timed out")
	}
}

// RunNow executes every task immediately and returns their results in
// registration order
func (s *Scheduler) RunNow(ctx context.Context) error {
	s.mu.RLock()
	tasks := append([]Task(nil), s.tasks...)
	s.mu.RUnlock()

	s.logger.Printf("[Maintenance] Running %d tasks", len(tasks))

	failed := 0
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.executeTask(ctx, task).Success {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d maintenance tasks failed", failed, len(tasks))
	}
	return nil
}

// GetStatus returns the current status of all maintenance tasks
func (s *Scheduler) GetStatus() map[string]TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := make(map[string]TaskStatus, len(s.status))
	for name, stat := range s.status {
		status[name] = stat
	}
	return status
}

// IsRunning returns true if the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// executeTask runs a single maintenance task and updates its status
func (s *Scheduler) executeTask(ctx context.Context, task Task) TaskResult {
	name := task.Name()
	s.logger.Printf("[Maintenance] Starting task: %s", name)

	start := time.Now()
	result := task.Execute(ctx)
	result.Duration = time.Since(start)

	s.mu.Lock()
	status := s.status[name]
	status.LastRun = start
	status.LastResult = result
	s.status[name] = status
	s.mu.Unlock()

	if result.Success {
		s.logger.Printf("[Maintenance] Task %s completed in %v: %s", name, result.Duration, result.Message)
	} else {
		s.logger.Printf("[Maintenance] Task %s failed after %v: %s", name, result.Duration, result.Message)
		if result.Error != nil {
			s.logger.Printf("[Maintenance] Task %s error: %v", name, result.Error)
		}
	}
	return result
}
