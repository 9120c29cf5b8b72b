package maintenance

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minview/internal/catalog"
	"minview/internal/minutiae"
)

func testLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

func TestCatalogTask(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	id, err := store.Save(ctx, catalog.Entry{
		ImagePath: "a.png",
		Minutiae:  []minutiae.Minutia{minutiae.New(1, 1, 0, minutiae.RidgeEnding, 1)},
	})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))

	logger, _ := testLogger()
	task := NewCatalogTask(store.DB(), CatalogConfig{VacuumEnabled: true, OptimizeIndexes: true}, logger)
	result := task.Execute(ctx)
	require.True(t, result.Success, "%s: %v", result.Message, result.Error)
	assert.Contains(t, result.Message, "Catalog size")

	disabled := NewCatalogTask(store.DB(), CatalogConfig{}, logger).Execute(ctx)
	assert.True(t, disabled.Success)
	assert.Contains(t, disabled.Message, "disabled")
}

func TestExportsTask(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.sim")
	fresh := filepath.Join(dir, "sub", "fresh.sim")
	require.NoError(t, os.WriteFile(old, []byte("1 1 0.0 END 1.0"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Dir(fresh), 0755))
	require.NoError(t, os.WriteFile(fresh, []byte("2 2 0.0 END 1.0"), 0644))

	now := time.Now()
	require.NoError(t, os.Chtimes(old, now.AddDate(0, 0, -40), now.AddDate(0, 0, -40)))

	logger, _ := testLogger()
	task := NewExportsTask(dir, ExportsConfig{RetentionDays: 30}, logger)
	result := task.Execute(context.Background())
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 1, result.RecordsProcessed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)

	kept := NewExportsTask(dir, ExportsConfig{}, logger).Execute(context.Background())
	assert.True(t, kept.Success)
	assert.FileExists(t, fresh)

	missing := NewExportsTask(filepath.Join(dir, "nope"), ExportsConfig{RetentionDays: 1}, logger).Execute(context.Background())
	assert.True(t, missing.Success)
	assert.Zero(t, missing.RecordsProcessed)
}

type fakeTask struct {
	name string
	ok   bool
	runs int
}

func (f *fakeTask) Name() string        { return f.name }
func (f *fakeTask) Description() string { return "fake " + f.name }
func (f *fakeTask) Execute(ctx context.Context) TaskResult {
	f.runs++
	return TaskResult{Success: f.ok, Message: "done"}
}

func TestScheduler(t *testing.T) {
	logger, buf := testLogger()
	s := NewScheduler(Config{}, logger)

	a := &fakeTask{name: "a", ok: true}
	b := &fakeTask{name: "b", ok: false}
	s.RegisterTask(a)
	s.RegisterTask(b)

	err := s.RunNow(context.Background())
	assert.EqualError(t, err, "1 of 2 maintenance tasks failed")
	assert.Equal(t, 1, a.runs)
	assert.Equal(t, 1, b.runs)

	status := s.GetStatus()
	require.Len(t, status, 2)
	assert.True(t, status["a"].LastResult.Success)
	assert.False(t, status["b"].LastResult.Success)
	assert.Equal(t, DefaultSchedule, status["a"].Schedule)

	// Disabled config does not start the cron loop
	require.NoError(t, s.Start())
	assert.False(t, s.IsRunning())
	assert.Contains(t, buf.String(), "disabled")
}

func TestScheduler_StartStop(t *testing.T) {
	logger, _ := testLogger()
	s := NewScheduler(Config{Enabled: true, Schedule: "@every 1h"}, logger)
	s.RegisterTask(&fakeTask{name: "a", ok: true})

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	s.Stop()
	assert.False(t, s.IsRunning())

	bad := NewScheduler(Config{Enabled: true, Schedule: "not a schedule"}, logger)
	assert.Error(t, bad.Start())
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule(DefaultSchedule))
	assert.NoError(t, ValidateSchedule("@daily"))
	assert.Error(t, ValidateSchedule("61 * * * *"))
}
