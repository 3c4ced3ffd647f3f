package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerToken_VerifiesOnlyForItsOwnPair(t *testing.T) {
	m := NewPlayerTokenMinter([]byte("test-key"))

	tok, err := m.Mint("ABCD12", "player-1")
	require.NoError(t, err)

	assert.NoError(t, m.Verify(tok, "ABCD12", "player-1"))
	assert.ErrorIs(t, m.Verify(tok, "ABCD12", "player-2"), ErrInvalidPlayerToken)
	assert.ErrorIs(t, m.Verify(tok, "WXYZ99", "player-1"), ErrInvalidPlayerToken)
}

func TestPlayerToken_RejectsMalformedToken(t *testing.T) {
	m := NewPlayerTokenMinter([]byte("test-key"))
	assert.ErrorIs(t, m.Verify("not-a-real-token", "ABCD12", "player-1"), ErrInvalidPlayerToken)
	assert.ErrorIs(t, m.Verify("abc.not-hex", "ABCD12", "player-1"), ErrInvalidPlayerToken)
}

func TestPlayerToken_DifferentKeysDoNotCrossVerify(t *testing.T) {
	a := NewPlayerTokenMinter([]byte("key-a"))
	b := NewPlayerTokenMinter([]byte("key-b"))

	tok, err := a.Mint("ABCD12", "player-1")
	require.NoError(t, err)
	assert.ErrorIs(t, b.Verify(tok, "ABCD12", "player-1"), ErrInvalidPlayerToken)
}

func TestNameSanitizer_StripsMarkupAndCapsLength(t *testing.T) {
	s := NewNameSanitizer()
	// The strict policy drops a script element's content along with its tags.
	assert.Equal(t, "", s.Clean("<script>alert(1)</script>"))

	long := s.Clean(strings.Repeat("a", 80))
	assert.Len(t, []rune(long), MaxNameRunes)
}
