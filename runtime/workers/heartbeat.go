package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"social-relay/observability"
)

// HeartbeatWorker periodically logs the relay's own vitals: process CPU and
// RSS from the OS plus the relay counters. It is the poor man's metrics
// endpoint, enough to watch a single node from its logs.
type HeartbeatWorker struct {
	log      *slog.Logger
	stats    *observability.RelayStats
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, stats *observability.RelayStats, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, stats: stats, interval: interval}
}

// Run executes the main loop of the worker, logging health metrics
// (CPU, RAM, counters) on every tick.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting relay heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			snapshot := w.stats.Snapshot()
			snapshot["pid"] = os.Getpid()
			snapshot["pidStatus"] = status
			snapshot["cpuPercent"] = cpu
			snapshot["ramBytes"] = rss
			w.log.Info("Relay heartbeat", "stats", snapshot)
		}
	}
}

// getSelfStats retrieves memory, CPU and OS status for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
