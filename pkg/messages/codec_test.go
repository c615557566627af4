package messages

import (
	"io"
	"strings"
	"testing"

	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	msg, err := NewMessage(MessageTypeClientPermissionRequest, 3, ClientPermissionRequest{Username: "alex", Level: permissions.Moderator})
	require.NoError(t, err)

	line, err := Encode(msg)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(line), "\n"))
	assert.Contains(t, string(line), `"level":"moderator"`)

	got, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeClientPermissionRequest, got.Type)
	assert.Equal(t, uint32(3), got.ClientID)

	req := ClientPermissionRequest{}
	require.NoError(t, got.DecodePayload(&req))
	assert.Equal(t, "alex", req.Username)
	assert.Equal(t, permissions.Moderator, req.Level)
}

func TestDecode_errors(t *testing.T) {
	for _, line := range []string{"", "   ", "{", `{"payload":{}}`} {
		_, err := Decode([]byte(line))
		assert.ErrorIs(t, err, ErrMalformed, line)
	}

	msg := &Message{Type: MessageTypeClientAttack}
	assert.Error(t, msg.DecodePayload(&struct{}{}))
}

func TestLineReader(t *testing.T) {
	input := `{"type":"join","payload":{"username":"steve"}}` + "\n\n" +
		`{"type":"ping","payload":{"timestamp":5}}` + "\n" +
		`not json` + "\n"
	r := NewLineReader(strings.NewReader(input))

	msg, err := r.Read()
	require.NoError(t, err)
	join := ClientJoin{}
	require.NoError(t, msg.DecodePayload(&join))
	assert.Equal(t, "steve", join.Username)

	msg, err = r.Read()
	require.NoError(t, err)
	assert.Equal(t, MessageTypeClientPing, msg.Type)

	_, err = r.Read()
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
}
