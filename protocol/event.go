package protocol

import (
	"fmt"
	"netquiz/domain"
	"netquiz/errors"
)

// MaxListLen bounds the element count accepted in a list frame.
const MaxListLen = 10_000

// WriteEvent encodes a chat event as one server frame. The caller flushes.
func WriteEvent(w *Writer, evt domain.ChatEvent) error {
	switch evt.Kind {
	case domain.UserListRefresh:
		if err := w.WriteString(FrameUserList); err != nil {
			return err
		}
		return w.WriteStrings(evt.Users)
	case domain.Help:
		if err := w.WriteString(FrameHelp); err != nil {
			return err
		}
		return w.WriteStrings(evt.Lines)
	}

	var tag string
	switch evt.Kind {
	case domain.Broadcast:
		tag = FrameChat
	case domain.Private:
		tag = FramePrivate
	case domain.System, domain.SystemJoin, domain.SystemLeave:
		tag = FrameSystem
	case domain.Error:
		tag = FrameError
	default:
		return fmt.Errorf("encode %s: %w", evt.Kind, errors.ErrUnknownFrame)
	}
	body := evt.Body()
	if len(body) > MaxStringLen {
		return fmt.Errorf("encode %s: %d bytes: %w", evt.Kind, len(body), errors.ErrFrameTooLarge)
	}
	if err := w.WriteString(tag); err != nil {
		return err
	}
	return w.WriteString(body)
}

// IsEncodingError reports whether err was raised before any byte reached the
// writer, leaving the connection usable.
func IsEncodingError(err error) bool {
	return errors.Is(err, errors.ErrFrameTooLarge) || errors.Is(err, errors.ErrUnknownFrame)
}

// Frame is a decoded server frame as a client sees it.
type Frame struct {
	Tag   string
	Text  string
	Items []string
}

// ReadFrame decodes one server frame.
func ReadFrame(r *Reader) (Frame, error) {
	tag, err := r.ReadString()
	if err != nil {
		return Frame{}, err
	}

	switch tag {
	case FrameUserList, FrameHelp:
		items, err := r.ReadStrings(MaxListLen)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Tag: tag, Items: items}, nil
	case FrameChat, FramePrivate, FrameSystem, FrameError:
		text, err := r.ReadString()
		if err != nil {
			return Frame{}, err
		}
		return Frame{Tag: tag, Text: text}, nil
	default:
		return Frame{}, fmt.Errorf("decode %q: %w", tag, errors.ErrUnknownFrame)
	}
}
