package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BacklogSource reports how many case events the stream still retains.
type BacklogSource interface {
	Backlog(ctx context.Context) (uint64, error)
}

// WatchBacklog samples src every interval into gauge until ctx is done.
// Failed samples leave the gauge at its last value.
func WatchBacklog(ctx context.Context, src BacklogSource, interval time.Duration, gauge prometheus.Gauge) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := src.Backlog(ctx)
			if err != nil {
				slog.Debug("sample case event backlog", "error", err)
				continue
			}
			gauge.Set(float64(n))
		}
	}
}
