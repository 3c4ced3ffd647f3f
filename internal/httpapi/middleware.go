package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/reviewarcade/arcade/internal/auth"
)

var (
	errTooManyCollisions = errors.New("httpapi: could not allocate a free session code")
	errNoBankLoader       = errors.New("httpapi: question_source bank requires a configured bank loader")
	errEmptyBank          = errors.New("httpapi: question bank ids resolved to zero questions")
)

// seedFromTime seeds a session's MathSource off the wall clock, fine for a
// classroom quiz's not-cryptographic shuffling of distractors.
func seedFromTime() uint64 {
	return uint64(time.Now().UnixNano())
}

// requireTeacher verifies the Authorization: Bearer <token> header against
// TeacherVerifier and, on success, calls next with the verified claims as
// its third argument. On failure it writes 401 auth_required (no header)
// or 401 auth_invalid (bad token) and does not call next, per spec §4.8.
func (s *Server) requireTeacher(next func(w http.ResponseWriter, r *http.Request, claims *auth.TeacherClaims)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "auth_required")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := s.TeacherVerifier.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "auth_invalid")
			return
		}
		next(w, r, claims)
	}
}

// errBody is spec §6.1's uniform REST error shape: {"detail": "..."}.
type errBody struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
