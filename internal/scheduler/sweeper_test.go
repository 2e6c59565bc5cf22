package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepStale(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestScheduler_RunOnce(t *testing.T) {
	sw := &countingSweeper{}
	s := New(sw, "@every 1m", zaptest.NewLogger(t))

	s.RunOnce(context.Background())
	sw.err = errors.New("redis down")
	s.RunOnce(context.Background())

	assert.EqualValues(t, 2, sw.calls.Load())
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(&countingSweeper{}, "not a spec", zaptest.NewLogger(t))
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_Ticks(t *testing.T) {
	sw := &countingSweeper{}
	s := New(sw, "@every 1s", zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return sw.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
