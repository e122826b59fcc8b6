package services

import (
	"context"
	"net"
	"testing"

	"netquiz/contract"
	"netquiz/protocol"
)

// serve runs handler on one end of an in-memory connection and returns the client end.
func serve(t *testing.T, handler contract.ConnHandler) (*protocol.Reader, *protocol.Writer, <-chan struct{}) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.Handle(context.Background(), server, protocol.NewReader(server), protocol.NewWriter(server))
	}()
	return protocol.NewReader(client), protocol.NewWriter(client), done
}
