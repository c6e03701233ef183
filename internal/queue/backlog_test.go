package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type stubBacklog struct {
	calls atomic.Int32
	fail  atomic.Bool
	n     atomic.Uint64
}

func (s *stubBacklog) Backlog(context.Context) (uint64, error) {
	s.calls.Add(1)
	if s.fail.Load() {
		return 0, errors.New("stream unavailable")
	}
	return s.n.Load(), nil
}

func TestWatchBacklog(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_backlog"})
	src := &stubBacklog{}
	src.n.Store(42)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		WatchBacklog(ctx, src, 5*time.Millisecond, gauge)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(gauge) == 42
	}, time.Second, 5*time.Millisecond)

	src.fail.Store(true)
	before := src.calls.Load()
	assert.Eventually(t, func() bool {
		return src.calls.Load() > before+1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, float64(42), testutil.ToFloat64(gauge), "failed samples keep the last value")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WatchBacklog did not stop on cancel")
	}
}
