package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_ScheduleEvery(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	var calls atomic.Int32
	id, err := s.ScheduleEvery("tick", 20*time.Millisecond, true, func(context.Context) { calls.Add(1) })
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	s.Start()
	defer func() { _ = s.Stop() }()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	defer func() { _ = s.Stop() }()

	_, err = s.ScheduleEvery("bad", 0, false, func(context.Context) {})
	require.Error(t, err)
	_, err = s.ScheduleEvery("bad", -time.Second, false, func(context.Context) {})
	require.Error(t, err)
}

func TestScheduler_SingletonSkipsOverlap(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	var running, maxRunning atomic.Int32
	_, err = s.ScheduleEvery("slow", 5*time.Millisecond, true, func(context.Context) {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		running.Add(-1)
	})
	require.NoError(t, err)

	s.Start()
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, s.Stop())
	assert.Equal(t, int32(1), maxRunning.Load())
}
