package workers

import (
	"context"
	"log/slog"
	"net"
	"netquiz/contract"
	"netquiz/domain"
	"sync/atomic"
)

// Notifier relays presence lines over UDP broadcast.
// Announce only enqueues: a full queue drops the line rather than block the
// request path. One consumer sends the queue in FIFO order.
type Notifier struct {
	log     *slog.Logger
	conn    contract.PacketSender
	addr    net.Addr
	queue   chan domain.Notification
	sent    atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

func NewNotifier(log *slog.Logger, conn contract.PacketSender, addr net.Addr, queueSize int) *Notifier {
	return &Notifier{
		log:   log,
		conn:  conn,
		addr:  addr,
		queue: make(chan domain.Notification, queueSize),
	}
}

func (n *Notifier) Announce(line domain.Notification) {
	select {
	case n.queue <- line:
	default:
		n.dropped.Add(1)
		n.log.Warn("Notification queue full, dropping line", "line", line.String())
	}
}

// Run consumes the queue until ctx is canceled. Lines still queued then are
// not sent.
func (n *Notifier) Run(ctx context.Context) error {
	n.log.Info("Starting notifier", "addr", n.addr.String())
	for {
		select {
		case <-ctx.Done():
			n.log.Debug("Stopping notifier", "pending", len(n.queue))
			return ctx.Err()
		case line := <-n.queue:
			if _, err := n.conn.WriteTo([]byte(line), n.addr); err != nil {
				n.failed.Add(1)
				n.log.Warn("Notification not sent", "line", line.String(), "error", err)
				continue
			}
			n.sent.Add(1)
			n.log.Debug("Notification sent", "line", line.String())
		}
	}
}

// Close releases the UDP socket. Call it once the consumer has stopped.
func (n *Notifier) Close() error {
	return n.conn.Close()
}

func (n *Notifier) Stats() NotifierStats {
	return NotifierStats{
		Pending: len(n.queue),
		Sent:    n.sent.Load(),
		Dropped: n.dropped.Load(),
		Failed:  n.failed.Load(),
	}
}

type NotifierStats struct {
	Pending int
	Sent    uint64
	Dropped uint64
	Failed  uint64
}

// Queue exposes the pending lines for capacity sampling.
func (n *Notifier) Queue() NamedChannel {
	return NamedChannel{Name: "notifications", Channel: n.queue}
}
