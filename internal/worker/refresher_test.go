package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReloader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeReloader) Reload(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeReloader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestGuidelineRefresher_Lifecycle(t *testing.T) {
	refresher := NewGuidelineRefresher(&fakeReloader{}, "@every 6h", nil, zap.NewNop())

	require.NoError(t, refresher.Start(context.Background()))
	assert.Error(t, refresher.Start(context.Background()), "double start is rejected")

	refresher.Stop()
	refresher.Stop() // idempotent

	require.NoError(t, refresher.Start(context.Background()), "restart after stop works")
	refresher.Stop()
}

func TestGuidelineRefresher_InvalidSchedule(t *testing.T) {
	refresher := NewGuidelineRefresher(&fakeReloader{}, "not a schedule", nil, zap.NewNop())

	err := refresher.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid refresh schedule")
}

func TestGuidelineRefresher_DefaultSchedule(t *testing.T) {
	refresher := NewGuidelineRefresher(&fakeReloader{}, "", nil, zap.NewNop())
	assert.Equal(t, DefaultRefreshSchedule, refresher.schedule)
}

func TestGuidelineRefresher_RefreshInvokesReloader(t *testing.T) {
	reloader := &fakeReloader{}
	refresher := NewGuidelineRefresher(reloader, "", nil, zap.NewNop())
	refresher.ctx, refresher.cancel = context.WithCancel(context.Background())
	defer refresher.cancel()

	refresher.refresh()
	assert.Equal(t, 1, reloader.callCount())

	reloader.err = errors.New("source unreachable")
	refresher.refresh()
	assert.Equal(t, 2, reloader.callCount(), "reload errors do not stop the schedule")
}

type scriptedWorker struct {
	name     string
	startErr error
	log      *[]string
}

func (s *scriptedWorker) Start(context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	*s.log = append(*s.log, "start:"+s.name)
	return nil
}

func (s *scriptedWorker) Stop() {
	*s.log = append(*s.log, "stop:"+s.name)
}

func (s *scriptedWorker) Name() string { return s.name }

func TestManager_StartStopOrder(t *testing.T) {
	var log []string
	manager := NewManager(zap.NewNop())
	manager.Register(&scriptedWorker{name: "a", log: &log})
	manager.Register(&scriptedWorker{name: "b", log: &log})

	require.NoError(t, manager.StartAll(context.Background()))
	manager.StopAll()

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, log)
	assert.Equal(t, 2, manager.Count())
}

func TestManager_StartFailureRollsBack(t *testing.T) {
	var log []string
	manager := NewManager(zap.NewNop())
	manager.Register(&scriptedWorker{name: "a", log: &log})
	manager.Register(&scriptedWorker{name: "b", startErr: errors.New("boom"), log: &log})
	manager.Register(&scriptedWorker{name: "c", log: &log})

	err := manager.StartAll(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"start:a", "stop:a"}, log, "started workers are stopped again")
}
