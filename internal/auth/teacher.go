// Package auth covers both halves of spec §4.8's authentication model:
// teacher identity, verified against bearer tokens minted by an external
// identity provider, and player identity, a same-process opaque token this
// server mints itself at join time. The teacher check follows the shape of
// hmcalister-TwentyQuestions/game.go's oracle-JWT cookie check: parse with
// jwt.RegisteredClaims, reject on any error, reject on !token.Valid.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidTeacherToken covers every way a bearer token can fail
// verification: bad signature, expired, malformed, wrong issuer.
var ErrInvalidTeacherToken = errors.New("auth: invalid teacher token")

// KeySource resolves the key(s) a teacher bearer token may be signed with.
// A static PEM-configured public key satisfies this trivially; a remote
// identity provider exposing a JWKS endpoint is free to implement it with
// a cached, periodically refreshed key set instead. Left as an interface,
// same as the teacher repo's signing key is just a []byte field on
// GameData — we generalize the storage, not the verification shape.
type KeySource interface {
	Keyfunc(token *jwt.Token) (interface{}, error)
}

// StaticRSAKeySource wraps a single fixed RSA public key, the common case of
// a long-lived identity provider signing key configured once at startup.
type StaticRSAKeySource struct {
	PublicKey *rsa.PublicKey
}

func (s StaticRSAKeySource) Keyfunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("auth: unexpected signing method %v", token.Header["alg"])
	}
	return s.PublicKey, nil
}

// TeacherClaims carries the identity fields the session handlers need off a
// verified token. Everything else in the JWT is ignored.
type TeacherClaims struct {
	jwt.RegisteredClaims
	TeacherID string `json:"teacher_id"`
	Name      string `json:"name"`
}

// TeacherVerifier checks bearer tokens presented on session-creation and
// host-reconnect requests.
type TeacherVerifier struct {
	keys KeySource
}

func NewTeacherVerifier(keys KeySource) *TeacherVerifier {
	return &TeacherVerifier{keys: keys}
}

// Verify parses and validates tokenString, returning the embedded teacher
// identity on success.
func (v *TeacherVerifier) Verify(tokenString string) (*TeacherClaims, error) {
	claims := &TeacherClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keys.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTeacherToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidTeacherToken
	}
	if claims.TeacherID == "" {
		return nil, fmt.Errorf("%w: missing teacher_id claim", ErrInvalidTeacherToken)
	}
	return claims, nil
}
