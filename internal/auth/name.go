package auth

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// NameSanitizer cleans a player-supplied display name before it is ever
// echoed back to another client. Paired concerns: bluemonday strips any
// markup a player tries to smuggle in (the same defense
// hmcalister-TwentyQuestions applies to oracle responses before relaying
// them), and NFC normalization keeps visually-identical names from landing
// in the leaderboard as distinct byte sequences.
type NameSanitizer struct {
	policy *bluemonday.Policy
}

func NewNameSanitizer() *NameSanitizer {
	return &NameSanitizer{policy: bluemonday.StrictPolicy()}
}

// MaxNameRunes is spec §3's upper bound on a player's display name, applied
// after HTML stripping, NFC normalization, and trimming.
const MaxNameRunes = 50

// MinNameRunes is spec §3's lower bound on a player's display name.
const MinNameRunes = 2

// Clean strips HTML, normalizes to NFC, trims whitespace, and caps length
// at MaxNameRunes per spec §3/§6.1's display-name constraints. Callers still
// need to reject the result if it falls under MinNameRunes — Clean only
// sanitizes, it never rejects.
func (s *NameSanitizer) Clean(raw string) string {
	stripped := s.policy.Sanitize(raw)
	normalized := norm.NFC.String(stripped)
	trimmed := strings.TrimSpace(normalized)

	runes := []rune(trimmed)
	if len(runes) > MaxNameRunes {
		runes = runes[:MaxNameRunes]
	}
	return string(runes)
}
