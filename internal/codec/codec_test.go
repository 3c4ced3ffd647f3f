package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTripsKnownMessages(t *testing.T) {
	raw := []byte(`{"type":"answer","question_id":"q1","answer_index":2,"time_ms":1200}`)

	tag, msg, err := Decode(ClientToServer, raw)
	require.NoError(t, err)
	assert.Equal(t, "answer", tag)

	answer, ok := msg.(*Answer)
	require.True(t, ok)
	assert.Equal(t, "q1", answer.QuestionID)
	assert.Equal(t, 2, answer.AnswerIndex)
	assert.Equal(t, 1200, answer.TimeMs)
}

func TestDecode_RejectsMissingType(t *testing.T) {
	_, _, err := Decode(ClientToServer, []byte(`{"score":10}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadMessage)
}

func TestDecode_RejectsUnrecognizedTypeForDirection(t *testing.T) {
	// "ping" is a server->client tag, never valid inbound from a client.
	_, _, err := Decode(ClientToServer, []byte(`{"type":"ping","t":1}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadMessage)
}

func TestDecode_IgnoresUnknownFields(t *testing.T) {
	raw := []byte(`{"type":"score_update","score":42,"extra_client_field":"whatever"}`)
	tag, msg, err := Decode(ClientToServer, raw)
	require.NoError(t, err)
	assert.Equal(t, "score_update", tag)
	assert.Equal(t, 42, msg.(*ScoreUpdate).Score)
}

func TestDecode_RejectsOversizedPayload(t *testing.T) {
	huge := `{"type":"special_event","event":{"k":"` + strings.Repeat("x", MaxMessageBytes+1) + `"}}`
	_, _, err := Decode(ClientToServer, []byte(huge))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadMessage)
}

func TestDecode_InitRequiresCredentialForRole(t *testing.T) {
	_, _, err := Decode(ClientToServer, []byte(`{"type":"init","role":"player","player_id":"p1"}`))
	require.Error(t, err)

	_, _, err = Decode(ClientToServer, []byte(`{"type":"init","role":"player","player_id":"p1","player_token":"tok"}`))
	require.NoError(t, err)
}

func TestEncodeDecode_Identity(t *testing.T) {
	out := NewAnswerCorrect(100, 100, 1, 1.0, 1, 0, true)
	raw, err := Encode(out)
	require.NoError(t, err)

	tag, msg, err := Decode(ServerToClient, raw)
	require.NoError(t, err)
	assert.Equal(t, "answer_correct", tag)
	assert.Equal(t, out, msg.(*AnswerCorrect))
}
