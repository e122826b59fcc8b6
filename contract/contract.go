//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"net"
	"netquiz/domain"
	"netquiz/protocol"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Recipient is the write side of a live chat session.
type Recipient interface {
	Username() string
	Send(evt domain.ChatEvent) error
}

// SessionDirectory is what the hub sees of the session registry.
// Every method returns a snapshot that may be stale as soon as it is returned.
type SessionDirectory interface {
	Recipients() []Recipient
	Find(username string) (Recipient, bool)
	Usernames() []string
}

// Announcer accepts presence lines and must never block the caller.
type Announcer interface {
	Announce(n domain.Notification)
}

type Authenticator interface {
	Authenticate(ctx context.Context, username, credential string) error
}

// ConnHandler takes ownership of a routed connection, the leading tag already consumed.
type ConnHandler interface {
	Handle(ctx context.Context, conn net.Conn, r *protocol.Reader, w *protocol.Writer)
}

// PacketSender is the connectionless transport of the notifier.
type PacketSender interface {
	WriteTo(p []byte, addr net.Addr) (int, error)
	Close() error
}
