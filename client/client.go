// Package client speaks the NetQuiz TCP protocol from the client side.
// Chat keeps one connection open for a session; every other request dials,
// sends a single command and reads a single reply.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"netquiz/domain"
	"netquiz/errors"
	"netquiz/protocol"
	"sync"
	"time"
)

// Chat is a logged-in chat session.
type Chat struct {
	Username string
	Welcome  string

	conn net.Conn
	r    *protocol.Reader
	mu   sync.Mutex
	w    *protocol.Writer
}

// RemoteFile is one entry of the shared directory listing.
type RemoteFile struct {
	Name string
	Size int64
}

func dial(ctx context.Context, addr, tag string) (net.Conn, *protocol.Reader, *protocol.Writer, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	w := protocol.NewWriter(conn)
	if err := w.WriteString(tag); err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	return conn, protocol.NewReader(conn), w, nil
}

// Login opens a chat session. A refusal by the server is returned as
// ErrLoginRejected wrapping the reason the server gave.
func Login(ctx context.Context, addr, username, credential string) (*Chat, error) {
	conn, r, w, err := dial(ctx, addr, protocol.TagChat)
	if err != nil {
		return nil, err
	}
	for _, s := range []string{protocol.CmdLogin, username, credential} {
		if err := w.WriteString(s); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	accepted, err := r.ReadBool()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("login reply: %w", err)
	}
	text, err := r.ReadString()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("login reply: %w", err)
	}
	if !accepted {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s", errors.ErrLoginRejected, text)
	}

	// The session outlives the login deadline.
	_ = conn.SetDeadline(time.Time{})
	return &Chat{Username: username, Welcome: text, conn: conn, r: r, w: w}, nil
}

// Send posts one chat line, commands such as /msg or /users included.
func (c *Chat) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.w.WriteString(line); err != nil {
		return err
	}
	return c.w.Flush()
}

// Next blocks for the next server frame. A zero timeout waits forever.
func (c *Chat) Next(timeout time.Duration) (protocol.Frame, error) {
	if timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()
	}
	return protocol.ReadFrame(c.r)
}

// Logout ends the session the way the desktop client does, then closes the connection.
func (c *Chat) Logout() error {
	c.mu.Lock()
	err := c.w.WriteString(protocol.CmdLogout)
	if err == nil {
		err = c.w.WriteString(c.Username)
	}
	if err == nil {
		err = c.w.Flush()
	}
	c.mu.Unlock()

	if cerr := c.Close(); err == nil {
		err = cerr
	}
	return err
}

func (c *Chat) Close() error {
	return c.conn.Close()
}

// Users asks for the live usernames without logging in.
func Users(ctx context.Context, addr string) ([]string, error) {
	conn, r, w, err := dial(ctx, addr, protocol.TagUser)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if err := send(w, protocol.CmdGetUsers); err != nil {
		return nil, err
	}
	return r.ReadStrings(protocol.MaxListLen)
}

// ListQuizzes returns the catalogue as "<id>:<title>" entries.
func ListQuizzes(ctx context.Context, addr string) ([]string, error) {
	conn, r, w, err := dial(ctx, addr, protocol.TagQuiz)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if err := send(w, protocol.CmdListQuizzes); err != nil {
		return nil, err
	}
	return r.ReadStrings(protocol.MaxListLen)
}

func GetQuiz(ctx context.Context, addr, id string) (domain.Quiz, error) {
	conn, r, w, err := dial(ctx, addr, protocol.TagQuiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	defer func() { _ = conn.Close() }()

	if err := send(w, protocol.CmdGetQuiz, id); err != nil {
		return domain.Quiz{}, err
	}
	status, err := r.ReadString()
	if err != nil {
		return domain.Quiz{}, err
	}
	body, err := r.ReadString()
	if err != nil {
		return domain.Quiz{}, err
	}
	if status != protocol.ReplySuccess {
		return domain.Quiz{}, fmt.Errorf("%w: %s", errors.ErrRequestRefused, body)
	}

	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(body), &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz %s: %w", id, err)
	}
	return quiz, nil
}

// SubmitAnswers returns the score, -1 when the quiz does not exist.
func SubmitAnswers(ctx context.Context, addr, username, quizID string, answers []int32) (int, error) {
	conn, r, w, err := dial(ctx, addr, protocol.TagQuiz)
	if err != nil {
		return 0, err
	}
	defer func() { _ = conn.Close() }()

	for _, s := range []string{protocol.CmdSubmitAnswers, username, quizID} {
		if err := w.WriteString(s); err != nil {
			return 0, err
		}
	}
	if err := w.WriteInt32(int32(len(answers))); err != nil {
		return 0, err
	}
	for _, a := range answers {
		if err := w.WriteInt32(a); err != nil {
			return 0, err
		}
	}
	if err := w.Flush(); err != nil {
		return 0, err
	}
	score, err := r.ReadInt32()
	return int(score), err
}

// Upload streams exactly size bytes of data under name.
func Upload(ctx context.Context, addr, name, uploader string, data io.Reader, size int64) error {
	conn, r, w, err := dial(ctx, addr, protocol.TagFile)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	for _, s := range []string{protocol.CmdUpload, name, uploader} {
		if err := w.WriteString(s); err != nil {
			return err
		}
	}
	if err := w.WriteInt64(size); err != nil {
		return err
	}
	if _, err := w.CopyFrom(data, size); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return readStatus(r, name)
}

// Download copies the file into dst and returns its size.
func Download(ctx context.Context, addr, name string, dst io.Writer) (int64, error) {
	conn, r, w, err := dial(ctx, addr, protocol.TagFile)
	if err != nil {
		return 0, err
	}
	defer func() { _ = conn.Close() }()

	if err := send(w, protocol.CmdDownload, name); err != nil {
		return 0, err
	}
	if err := readStatus(r, name); err != nil {
		return 0, err
	}
	size, err := r.ReadInt64()
	if err != nil {
		return 0, err
	}
	if size < 0 {
		return 0, fmt.Errorf("download %s: size %d: %w", name, size, errors.ErrInvalidLength)
	}
	return r.CopyTo(dst, size)
}

func ListFiles(ctx context.Context, addr string) ([]RemoteFile, error) {
	conn, r, w, err := dial(ctx, addr, protocol.TagFile)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if err := send(w, protocol.CmdList); err != nil {
		return nil, err
	}
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > protocol.MaxListLen {
		return nil, fmt.Errorf("file count %d: %w", n, errors.ErrInvalidLength)
	}
	files := make([]RemoteFile, 0, n)
	for range n {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		size, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		files = append(files, RemoteFile{Name: name, Size: size})
	}
	return files, nil
}

func send(w *protocol.Writer, values ...string) error {
	for _, v := range values {
		if err := w.WriteString(v); err != nil {
			return err
		}
	}
	return w.Flush()
}

func readStatus(r *protocol.Reader, name string) error {
	status, err := r.ReadString()
	if err != nil {
		return err
	}
	if status != protocol.ReplySuccess {
		return fmt.Errorf("%s: %w", name, errors.ErrRequestRefused)
	}
	return nil
}
