package runtime

import (
	"fmt"
	"log/slog"
	"netquiz/contract"
	"netquiz/domain"
	"netquiz/errors"
	"netquiz/protocol"

	"github.com/samber/lo"
)

// FailureHandler is invoked, without any hub lock held, when the connection
// behind r fails a write.
type FailureHandler func(r contract.Recipient, err error)

// Hub fans chat events out to the sessions of a directory.
// Delivery is best-effort: each recipient is written independently and a
// failing one never stops delivery to the others.
type Hub struct {
	log       *slog.Logger
	directory contract.SessionDirectory
	onFailure FailureHandler
}

func NewHub(log *slog.Logger, directory contract.SessionDirectory) *Hub {
	return &Hub{log: log, directory: directory}
}

// OnDeliveryFailure sets the handler called for each failed write.
// It must be set before the hub is shared.
func (h *Hub) OnDeliveryFailure(fn FailureHandler) {
	h.onFailure = fn
}

// Broadcast delivers evt to a snapshot of the directory minus the excluded usernames.
// A session joining while the loop runs may miss the event.
func (h *Hub) Broadcast(evt domain.ChatEvent, exclude ...string) int {
	targets := lo.Filter(h.directory.Recipients(), func(r contract.Recipient, _ int) bool {
		return !lo.Contains(exclude, r.Username())
	})

	delivered := 0
	for _, target := range targets {
		if h.deliver(target, evt) == nil {
			delivered++
		}
	}
	return delivered
}

// SendTo delivers evt to exactly one live session.
func (h *Hub) SendTo(username string, evt domain.ChatEvent) error {
	target, ok := h.directory.Find(username)
	if !ok {
		return fmt.Errorf("%s: %w", username, errors.ErrUserNotFound)
	}
	return h.deliver(target, evt)
}

// Reply writes evt back to the session that triggered it.
func (h *Hub) Reply(to contract.Recipient, evt domain.ChatEvent) error {
	return h.deliver(to, evt)
}

// RefreshUserList pushes the current user list to every session.
func (h *Hub) RefreshUserList() {
	h.Broadcast(domain.NewUserList(h.directory.Usernames()))
}

func (h *Hub) deliver(target contract.Recipient, evt domain.ChatEvent) error {
	err := target.Send(evt)
	if err == nil {
		return nil
	}
	h.log.Warn("Delivery failed",
		"to", target.Username(),
		"kind", evt.Kind.String(),
		"event_id", evt.ID,
		"error", err)
	if h.onFailure != nil && connectionFault(err) {
		h.onFailure(target, err)
	}
	return err
}

// connectionFault tells a broken connection apart from an event that could not
// be encoded and from a session whose owner is already closing it.
func connectionFault(err error) bool {
	return !protocol.IsEncodingError(err) && !errors.Is(err, errors.ErrSessionClosed)
}
