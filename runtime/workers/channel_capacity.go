package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the length of buffered channels
// and warns when one is about to fill up. Reading len and cap is non-blocking,
// so sampling never interferes with producers or consumers.
type ChannelCapacityWorker struct {
	log         *slog.Logger
	channels    []NamedChannel
	interval    time.Duration
	lowCapacity int
}

// NewChannelCapacityWorker warns once fewer than lowCapacity slots remain free.
func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	interval time.Duration, lowCapacity int) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:         log,
		channels:    channels,
		interval:    interval,
		lowCapacity: lowCapacity,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sample()
		}
	}
}

// sample returns the names of the channels found low on capacity.
func (w *ChannelCapacityWorker) sample() []string {
	var low []string
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity, length := v.Cap(), v.Len()
		if capacity-length < w.lowCapacity {
			low = append(low, nc.Name)
			w.log.Warn("Channel almost full", "name", nc.Name, "length", length, "capacity", capacity)
			continue
		}
		w.log.Debug("Channel capacity", "name", nc.Name, "length", length, "capacity", capacity)
	}
	return low
}
