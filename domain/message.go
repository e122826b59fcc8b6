// Package domain contains core concepts of the NetQuiz server.
// This file defines the chat events fanned out to live sessions.
// Events are immutable once built: constructors copy any slice they receive.
package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

type EventKind int

const (
	Broadcast EventKind = iota
	Private
	System
	SystemJoin
	SystemLeave
	UserListRefresh
	Help
	Error
)

func (k EventKind) String() string {
	switch k {
	case Broadcast:
		return "broadcast"
	case Private:
		return "private"
	case System:
		return "system"
	case SystemJoin:
		return "system_join"
	case SystemLeave:
		return "system_leave"
	case UserListRefresh:
		return "user_list"
	case Help:
		return "help"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ChatEvent represents one message travelling from the server to a session.
type ChatEvent struct {
	ID        uuid.UUID
	Kind      EventKind
	Sender    string
	Recipient string
	Text      string
	Users     []string
	Lines     []string
	At        time.Time
}

func newEvent(kind EventKind) ChatEvent {
	return ChatEvent{ID: uuid.New(), Kind: kind, At: time.Now().UTC()}
}

func NewBroadcast(sender, text string) ChatEvent {
	e := newEvent(Broadcast)
	e.Sender, e.Text = sender, text
	return e
}

func NewPrivate(sender, recipient, text string) ChatEvent {
	e := newEvent(Private)
	e.Sender, e.Recipient, e.Text = sender, recipient, text
	return e
}

func NewSystem(text string) ChatEvent {
	e := newEvent(System)
	e.Text = text
	return e
}

func NewJoin(username string) ChatEvent {
	e := newEvent(SystemJoin)
	e.Sender = username
	return e
}

func NewLeave(username string) ChatEvent {
	e := newEvent(SystemLeave)
	e.Sender = username
	return e
}

func NewUserList(users []string) ChatEvent {
	e := newEvent(UserListRefresh)
	e.Users = slices.Clone(users)
	return e
}

func NewHelp(lines []string) ChatEvent {
	e := newEvent(Help)
	e.Lines = slices.Clone(lines)
	return e
}

func NewError(text string) ChatEvent {
	e := newEvent(Error)
	e.Text = text
	return e
}

// Body renders the text carried by single-string frames.
func (e ChatEvent) Body() string {
	switch e.Kind {
	case Broadcast:
		return fmt.Sprintf("[%s]: %s", e.Sender, e.Text)
	case Private:
		return fmt.Sprintf("[Private from %s]: %s", e.Sender, e.Text)
	case SystemJoin:
		return fmt.Sprintf("%s has joined the chat", e.Sender)
	case SystemLeave:
		return fmt.Sprintf("%s has left the chat", e.Sender)
	default:
		return e.Text
	}
}
