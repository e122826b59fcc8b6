package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HeartbeatWorker periodically logs the process footprint next to the live session count.
type HeartbeatWorker struct {
	log      *slog.Logger
	interval time.Duration
	sessions func() int
	notifier *Notifier
}

func NewHeartbeatWorker(log *slog.Logger, interval time.Duration, sessions func() int, notifier *Notifier) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, interval: interval, sessions: sessions, notifier: notifier}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.beat(p)
		}
	}
}

func (w *HeartbeatWorker) beat(p *process.Process) {
	sessions := w.sessions()
	rss, cpu, status, err := selfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "sessions", sessions, "error", err)
		return
	}
	attrs := []any{
		"sessions", sessions,
		"rss_bytes", rss,
		"cpu_percent", cpu,
		"status", status,
	}
	if w.notifier != nil {
		stats := w.notifier.Stats()
		attrs = append(attrs,
			"notify_pending", stats.Pending,
			"notify_sent", stats.Sent,
			"notify_dropped", stats.Dropped)
	}
	w.log.Info("Heartbeat", attrs...)
}

// selfStats retrieves memory, CPU and OS status of the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
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
