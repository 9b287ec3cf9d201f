package background

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBoot struct {
	enabled bool
	calls   int
	err     error
}

func (b *fakeBoot) Enable() error {
	b.calls++
	if b.err != nil {
		return b.err
	}
	b.enabled = true
	return nil
}

func (b *fakeBoot) Disable() error {
	b.calls++
	b.enabled = false
	return nil
}

func (b *fakeBoot) IsEnabled() bool { return b.enabled }

func TestRegistry_TriggerUnknown(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	res, err := r.Trigger(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownTask)
	assert.Equal(t, Failed, res)
}

func TestRegistry_TriggerRecordsResult(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	require.NoError(t, r.Register("reconcile", Options{}, func(context.Context) Result { return NewData }))

	res, err := r.Trigger(context.Background(), "reconcile")
	require.NoError(t, err)
	assert.Equal(t, NewData, res)

	last, ok := r.Last("reconcile")
	assert.True(t, ok)
	assert.Equal(t, NewData, last)
	assert.Equal(t, []string{"reconcile"}, r.Names())
}

func TestRegistry_PanicReportsFailed(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	require.NoError(t, r.Register("boom", Options{}, func(context.Context) Result { panic("boom") }))

	res, err := r.Trigger(context.Background(), "boom")
	require.NoError(t, err)
	assert.Equal(t, Failed, res)
}

func TestRegistry_OverlappingTriggersShareOneRun(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	var runs atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	require.NoError(t, r.Register("slow", Options{}, func(context.Context) Result {
		runs.Add(1)
		once.Do(func() { close(started) })
		<-release
		return NoData
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = r.Trigger(context.Background(), "slow")
	}()
	<-started

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Trigger(context.Background(), "slow")
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
}

func TestRegistry_RunTicksUntilCancelled(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	var runs atomic.Int32
	require.NoError(t, r.Register("tick", Options{MinimumInterval: 5 * time.Millisecond}, func(context.Context) Result {
		runs.Add(1)
		return NoData
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRegistry_StartOnBoot(t *testing.T) {
	boot := &fakeBoot{}
	r := NewRegistry(boot, zap.NewNop())
	noop := func(context.Context) Result { return NoData }

	require.NoError(t, r.Register("reconcile", Options{StartOnBoot: true}, noop))
	assert.True(t, boot.enabled)

	// already enabled, nothing to do
	require.NoError(t, r.Register("other", Options{}, noop))
	assert.Equal(t, 1, boot.calls)

	require.NoError(t, r.Register("reconcile", Options{StartOnBoot: false}, noop))
	assert.False(t, boot.enabled)
}

func TestRegistry_StartOnBootError(t *testing.T) {
	boot := &fakeBoot{err: errors.New("read-only home")}
	r := NewRegistry(boot, zap.NewNop())
	err := r.Register("reconcile", Options{StartOnBoot: true}, func(context.Context) Result { return NoData })
	assert.ErrorIs(t, err, boot.err)

	_, err = r.Trigger(context.Background(), "reconcile")
	assert.NoError(t, err)
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry(nil, zap.NewNop())
	assert.Error(t, r.Register("", Options{}, func(context.Context) Result { return NoData }))
	assert.Error(t, r.Register("x", Options{}, nil))
}
