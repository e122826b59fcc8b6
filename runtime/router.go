package runtime

import (
	"context"
	"log/slog"
	"net"
	"netquiz/contract"
	"netquiz/protocol"
	"time"
)

// Router reads the leading tag of a connection and hands it to the matching handler.
// The handler owns the connection from then on. The tag read deadline stays
// armed so the handler's first request must also arrive in time; handlers
// clear or re-arm it once they know what they are serving.
type Router struct {
	log        *slog.Logger
	handlers   map[string]contract.ConnHandler
	tagTimeout time.Duration
}

func NewRouter(log *slog.Logger, tagTimeout time.Duration) *Router {
	return &Router{
		log:        log,
		handlers:   make(map[string]contract.ConnHandler),
		tagTimeout: tagTimeout,
	}
}

// Register binds handler to every given tag.
func (r *Router) Register(handler contract.ConnHandler, tags ...string) *Router {
	for _, tag := range tags {
		r.handlers[tag] = handler
	}
	return r
}

func (r *Router) Route(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Connection handler panicked", "remote", remote, "panic", rec)
			_ = conn.Close()
		}
	}()

	reader := protocol.NewReader(conn)
	writer := protocol.NewWriter(conn)

	if r.tagTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(r.tagTimeout))
	}
	tag, err := reader.ReadString()
	if err != nil {
		r.log.Debug("Connection dropped before tag", "remote", remote, "error", err)
		_ = conn.Close()
		return
	}

	handler, ok := r.handlers[tag]
	if !ok {
		r.log.Warn("Unknown tag", "remote", remote, "tag", tag)
		if err := writer.WriteString(protocol.ReplyError); err == nil {
			_ = writer.Flush()
		}
		_ = conn.Close()
		return
	}

	r.log.Debug("Routing connection", "remote", remote, "tag", tag)
	handler.Handle(ctx, conn, reader, writer)
}
