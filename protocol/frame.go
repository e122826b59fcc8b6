// Package protocol implements the framing spoken on the NetQuiz TCP port.
//
// Frames follow the java.io.DataOutputStream layout used by the desktop clients:
// strings carry an unsigned 16-bit big-endian byte length followed by UTF-8,
// ints are 32-bit and longs 64-bit big-endian, booleans a single byte.
// Strings are plain UTF-8, so NUL and characters outside the BMP are not
// re-encoded the way Java's modified UTF-8 does.
package protocol

import (
	"bufio"
	"encoding/binary"
	"io"
	"netquiz/errors"
)

const MaxStringLen = 1<<16 - 1

type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &Reader{r: br}
	}
	return &Reader{r: bufio.NewReader(r)}
}

func (r *Reader) ReadString() (string, error) {
	var n uint16
	if err := binary.Read(r.r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	var v int32
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

func (r *Reader) ReadInt64() (int64, error) {
	var v int64
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.r.ReadByte()
	return b != 0, err
}

// ReadStrings reads a count followed by that many strings.
func (r *Reader) ReadStrings(limit int) ([]string, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 || int(n) > limit {
		return nil, errors.ErrInvalidLength
	}
	out := make([]string, 0, n)
	for range n {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// CopyTo streams exactly n raw bytes following the last frame into dst.
func (r *Reader) CopyTo(dst io.Writer, n int64) (int64, error) {
	written, err := io.CopyN(dst, r.r, n)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return written, err
}

type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	if bw, ok := w.(*bufio.Writer); ok {
		return &Writer{w: bw}
	}
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) WriteString(s string) error {
	if len(s) > MaxStringLen {
		return errors.ErrFrameTooLarge
	}
	if err := binary.Write(w.w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := w.w.WriteString(s)
	return err
}

func (w *Writer) WriteInt32(v int32) error {
	return binary.Write(w.w, binary.BigEndian, v)
}

func (w *Writer) WriteInt64(v int64) error {
	return binary.Write(w.w, binary.BigEndian, v)
}

func (w *Writer) WriteBool(v bool) error {
	var b byte
	if v {
		b = 1
	}
	return w.w.WriteByte(b)
}

// WriteStrings writes a count followed by each string.
// Nothing is buffered when one of the values is too large.
func (w *Writer) WriteStrings(values []string) error {
	for _, v := range values {
		if len(v) > MaxStringLen {
			return errors.ErrFrameTooLarge
		}
	}
	if err := w.WriteInt32(int32(len(values))); err != nil {
		return err
	}
	for _, v := range values {
		if err := w.WriteString(v); err != nil {
			return err
		}
	}
	return nil
}

// CopyFrom streams n raw bytes from src after the frames already buffered.
func (w *Writer) CopyFrom(src io.Reader, n int64) (int64, error) {
	written, err := io.CopyN(w.w, src, n)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return written, err
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}
