package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("every now and then", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduler_RunOnce(t *testing.T) {
	boom := errors.New("database is locked")
	calls := 0
	s, err := NewScheduler("@hourly", func(context.Context) error {
		calls++
		if calls > 1 {
			return boom
		}
		return nil
	})
	require.NoError(t, err)

	assert.NoError(t, s.RunOnce(context.Background()))
	assert.ErrorIs(t, s.RunOnce(context.Background()), boom)
	assert.Equal(t, 2, calls)
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	var calls atomic.Int32
	s, err := NewScheduler("@every 1s", func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	s.Start(context.Background())
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s, err := NewScheduler("@daily", func(context.Context) error { return nil })
	require.NoError(t, err)
	s.Stop()
}

func TestScheduler_RestartKeepsSingleEntry(t *testing.T) {
	s, err := NewScheduler("@hourly", func(context.Context) error { return nil })
	require.NoError(t, err)

	s.Start(context.Background())
	s.Stop()
	s.Start(context.Background())
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 1)
}
