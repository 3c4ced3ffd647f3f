package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPlayerToken covers a token that doesn't verify against the
// (sessionCode, playerID) pair it's presented with.
var ErrInvalidPlayerToken = errors.New("auth: invalid player token")

// PlayerTokenMinter issues and checks the opaque per-player tokens spec
// §4.8 describes: 128 bits of randomness, bound to a (session_code,
// player_id) pair with an HMAC so a token minted for one session can't be
// replayed against another.
//
// Unlike the teacher JWT, this is a same-process secret: mint and verify
// always run against the same key, so a plain HMAC-SHA256 is enough — no
// asymmetric scheme needed.
type PlayerTokenMinter struct {
	key []byte
}

func NewPlayerTokenMinter(key []byte) *PlayerTokenMinter {
	return &PlayerTokenMinter{key: key}
}

// Mint returns an opaque token of the form "<random>.<mac>" good for this
// sessionCode/playerID pair for as long as the session lives.
func (m *PlayerTokenMinter) Mint(sessionCode, playerID string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("auth: generating player token: %w", err)
	}
	encodedNonce := base64.RawURLEncoding.EncodeToString(nonce)
	mac := m.sign(encodedNonce, sessionCode, playerID)
	return encodedNonce + "." + hex.EncodeToString(mac), nil
}

// Verify checks that token was minted by this process for exactly this
// sessionCode/playerID pair.
func (m *PlayerTokenMinter) Verify(token, sessionCode, playerID string) error {
	dot := strings.IndexByte(token, '.')
	if dot < 0 {
		return ErrInvalidPlayerToken
	}
	encodedNonce, macHex := token[:dot], token[dot+1:]

	given, err := hex.DecodeString(macHex)
	if err != nil {
		return ErrInvalidPlayerToken
	}
	want := m.sign(encodedNonce, sessionCode, playerID)
	if subtle.ConstantTimeCompare(given, want) != 1 {
		return ErrInvalidPlayerToken
	}
	return nil
}

func (m *PlayerTokenMinter) sign(encodedNonce, sessionCode, playerID string) []byte {
	h := hmac.New(sha256.New, m.key)
	h.Write([]byte(encodedNonce))
	h.Write([]byte{0})
	h.Write([]byte(sessionCode))
	h.Write([]byte{0})
	h.Write([]byte(playerID))
	return h.Sum(nil)
}
