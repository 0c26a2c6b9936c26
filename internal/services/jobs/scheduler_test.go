package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alerterStub struct {
	mu       sync.Mutex
	messages []string
}

func (a *alerterStub) SendAlert(_ context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
	return nil
}

func (a *alerterStub) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)
}

func newTestScheduler(t *testing.T) (*Scheduler, *alerterStub) {
	alerter := &alerterStub{}
	s := NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)), alerter)
	t.Cleanup(s.Stop)
	return s, alerter
}

func TestScheduler_Fires(t *testing.T) {
	s, _ := newTestScheduler(t)
	done := make(chan struct{})

	s.Schedule("order:1", 10*time.Millisecond, func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not fire")
	}
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_Cancel(t *testing.T) {
	s, _ := newTestScheduler(t)
	var fired atomic.Bool

	s.Schedule("order:2", 50*time.Millisecond, func(ctx context.Context) {
		fired.Store(true)
	})
	require.True(t, s.Cancel("order:2"))
	assert.False(t, s.Cancel("order:2"))

	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestScheduler_ReplaceSameKey(t *testing.T) {
	s, _ := newTestScheduler(t)
	var first, second atomic.Int32
	done := make(chan struct{})

	s.Schedule("order:3", 30*time.Millisecond, func(ctx context.Context) {
		first.Add(1)
	})
	s.Schedule("order:3", 40*time.Millisecond, func(ctx context.Context) {
		second.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replacement task did not fire")
	}
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestScheduler_StopDropsPending(t *testing.T) {
	alerter := &alerterStub{}
	s := NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)), alerter)
	var fired atomic.Bool

	s.Schedule("order:4", 30*time.Millisecond, func(ctx context.Context) {
		fired.Store(true)
	})
	s.Stop()
	s.Schedule("order:5", time.Millisecond, func(ctx context.Context) {
		fired.Store(true)
	})

	time.Sleep(80 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_PanicIsRecoveredAndAlerted(t *testing.T) {
	s, alerter := newTestScheduler(t)

	s.Schedule("order:6", time.Millisecond, func(ctx context.Context) {
		panic("boom")
	})

	assert.Eventually(t, func() bool { return alerter.count() == 1 }, time.Second, 5*time.Millisecond)
}
