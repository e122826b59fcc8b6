package protocol

import (
	"bytes"
	"strings"
	"testing"

	"netquiz/domain"
	"netquiz/errors"

	"github.com/stretchr/testify/require"
)

func TestWriteEvent_ReadFrame(t *testing.T) {
	tests := []struct {
		name  string
		event domain.ChatEvent
		want  Frame
	}{
		{"public chat", domain.NewBroadcast("alice", "hello"), Frame{Tag: FrameChat, Text: "[alice]: hello"}},
		{"private", domain.NewPrivate("bob", "alice", "hi"), Frame{Tag: FramePrivate, Text: "[Private from bob]: hi"}},
		{"join", domain.NewJoin("bob"), Frame{Tag: FrameSystem, Text: "bob has joined the chat"}},
		{"leave", domain.NewLeave("bob"), Frame{Tag: FrameSystem, Text: "bob has left the chat"}},
		{"confirmation", domain.NewSystem("Message delivered to alice"), Frame{Tag: FrameSystem, Text: "Message delivered to alice"}},
		{"error", domain.NewError("User dave not found"), Frame{Tag: FrameError, Text: "User dave not found"}},
		{"user list", domain.NewUserList([]string{"alice", "bob"}), Frame{Tag: FrameUserList, Items: []string{"alice", "bob"}}},
		{"help", domain.NewHelp([]string{"a", "b", "c"}), Frame{Tag: FrameHelp, Items: []string{"a", "b", "c"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			var buf bytes.Buffer
			w := NewWriter(&buf)

			req.NoError(WriteEvent(w, tt.event))
			req.NoError(w.Flush())

			got, err := ReadFrame(NewReader(&buf))
			req.NoError(err)
			req.Equal(tt.want.Tag, got.Tag)
			req.Equal(tt.want.Text, got.Text)
			req.ElementsMatch(tt.want.Items, got.Items)
		})
	}
}

func TestReadFrame_UnknownTag(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	req.NoError(w.WriteString("NOPE"))
	req.NoError(w.Flush())

	_, err := ReadFrame(NewReader(&buf))

	req.ErrorIs(err, errors.ErrUnknownFrame)
}

func TestWriteEvent_UnknownKind(t *testing.T) {
	req := require.New(t)
	evt := domain.NewSystem("x")
	evt.Kind = domain.EventKind(99)

	err := WriteEvent(NewWriter(&bytes.Buffer{}), evt)

	req.ErrorIs(err, errors.ErrUnknownFrame)
}

func TestWriteEvent_Oversized_Body_Writes_Nothing(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	w := NewWriter(&buf)

	// Given a line that only overflows once the author prefix is added
	evt := domain.NewBroadcast("alice", strings.Repeat("a", MaxStringLen-4))

	err := WriteEvent(w, evt)

	// Then the error is an encoding one and no partial frame is left behind
	req.ErrorIs(err, errors.ErrFrameTooLarge)
	req.True(IsEncodingError(err))
	req.NoError(w.Flush())
	req.Zero(buf.Len())

	// And the writer still carries the next event intact
	req.NoError(WriteEvent(w, domain.NewSystem("still here")))
	req.NoError(w.Flush())
	got, err := ReadFrame(NewReader(&buf))
	req.NoError(err)
	req.Equal(Frame{Tag: FrameSystem, Text: "still here"}, got)
}

func TestWriteStrings_Oversized_Item_Writes_Nothing(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	w := NewWriter(&buf)

	err := w.WriteStrings([]string{"alice", strings.Repeat("b", MaxStringLen+1)})

	req.ErrorIs(err, errors.ErrFrameTooLarge)
	req.NoError(w.Flush())
	req.Zero(buf.Len())
}
