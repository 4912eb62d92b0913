package session

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maa-se/internal/config"
	"maa-se/internal/engineffi"
	"maa-se/internal/eventrouter"
	"maa-se/internal/taskqueue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

func newTestManager(t *testing.T, fake *engineffi.Fake) *Manager {
	t.Helper()
	router := eventrouter.New(testLogger(), nil)
	m := NewManager(testLogger(), fake, router, t.TempDir(), t.TempDir())
	m.pollInterval = 10 * time.Millisecond
	return m
}

func sampleQueue() taskqueue.Queue {
	return taskqueue.Build(map[string]taskqueue.Parameters{
		"Fight":   {Enable: true, Index: 1},
		"Recruit": {Enable: true, Index: 2},
	}, []string{"Fight", "Recruit"})
}

func TestRunSubmitsTasksInOrderAndStops(t *testing.T) {
	fake := engineffi.NewFake()
	m := newTestManager(t, fake)

	stopped := make(chan struct{})
	go func() {
		time.Sleep(30 * time.Millisecond)
		m.RequestStop()
		close(stopped)
	}()

	err := m.Run(context.Background(), sampleQueue(), config.DefaultAdbSettings())
	require.NoError(t, err)
	<-stopped

	assert.True(t, fake.Loaded)
	assert.Equal(t, []string{"Fight", "Recruit"}, fake.AppendedTasks)
	assert.True(t, fake.Started)
	assert.Equal(t, int32(1), fake.Stopped)
}

func TestRunReturnsWhenEngineStopsOnItsOwn(t *testing.T) {
	fake := engineffi.NewFake()
	m := newTestManager(t, fake)

	go func() {
		time.Sleep(20 * time.Millisecond)
		fake.Stop()
	}()

	err := m.Run(context.Background(), sampleQueue(), config.DefaultAdbSettings())
	require.NoError(t, err)
}

func TestConcurrentRunIsRejected(t *testing.T) {
	fake := engineffi.NewFake()
	m := newTestManager(t, fake)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		done <- m.Run(context.Background(), sampleQueue(), config.DefaultAdbSettings())
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	err := m.Run(context.Background(), sampleQueue(), config.DefaultAdbSettings())
	assert.Error(t, err)

	m.RequestStop()
	require.NoError(t, <-done)
}

func TestRunSurfacesLoadResourceFailure(t *testing.T) {
	fake := engineffi.NewFake()
	fake.FailResource = true
	m := newTestManager(t, fake)

	err := m.Run(context.Background(), sampleQueue(), config.DefaultAdbSettings())
	assert.Error(t, err)
}

func TestReloadRejectedWhileSessionActive(t *testing.T) {
	fake := engineffi.NewFake()
	m := newTestManager(t, fake)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		done <- m.Run(context.Background(), sampleQueue(), config.DefaultAdbSettings())
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	err := m.Reload()
	assert.Error(t, err)

	m.RequestStop()
	require.NoError(t, <-done)
}
