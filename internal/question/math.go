package question

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/exp/rand"
)

// Operation is one of spec §4.3's four enabled arithmetic operations.
type Operation string

const (
	Add Operation = "add"
	Sub Operation = "sub"
	Mul Operation = "mul"
	Div Operation = "div"
)

// MathConfig is the per-session math_config of spec §4.1's session config.
type MathConfig struct {
	Operations []Operation
	Min, Max   int
}

// MathSource deterministically generates arithmetic problems per operand
// pair, with options built from small perturbations of the correct answer
// as spec §4.3 and open-question §9 freeze it: ±1, ±2, and an operand-swap
// variant for the non-commutative operations.
type MathSource struct {
	cfg  MathConfig
	rand *rand.Rand
}

// NewMathSource builds a source seeded from seed, so two sources built with
// the same seed (e.g. in a test) produce the same sequence of problems.
func NewMathSource(cfg MathConfig, seed uint64) *MathSource {
	return &MathSource{cfg: cfg, rand: rand.New(rand.NewSource(seed))}
}

func (s *MathSource) Next(seen []string) (Question, error) {
	if len(s.cfg.Operations) == 0 {
		return Question{}, fmt.Errorf("question: math source has no enabled operations")
	}
	seenSet := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}

	const maxAttempts = 64
	var last Question
	for attempt := 0; attempt < maxAttempts; attempt++ {
		q := s.generate()
		last = q
		if _, dup := seenSet[q.QuestionID]; !dup {
			return q, nil
		}
	}
	// Operand space exhausted within the attempt budget: spec only requires
	// no-repeat "within a session", and a session's question supply from a
	// generator is effectively unbounded, so this only triggers under a very
	// narrow operand range. Fall back to the last generated problem rather
	// than looping forever.
	return last, nil
}

func (s *MathSource) generate() Question {
	op := s.cfg.Operations[s.rand.Intn(len(s.cfg.Operations))]

	var a, b, result int
	switch op {
	case Sub:
		a = s.randInRange()
		b = s.randInRange()
		if b > a {
			a, b = b, a
		}
		result = a - b
	case Div:
		divisor := s.randInRangeNonZero()
		quotient := s.randInRange()
		b = divisor
		a = divisor * quotient
		result = quotient
	case Mul:
		a = s.randInRange()
		b = s.randInRange()
		result = a * b
	default: // Add
		a = s.randInRange()
		b = s.randInRange()
		result = a + b
	}

	options := s.buildOptions(op, a, b, result)
	correctIndex := 0
	for i, opt := range options {
		if opt == formatInt(result) {
			correctIndex = i
			break
		}
	}

	return Question{
		QuestionID:   stableQuestionID(a, op, b),
		Text:         problemText(op, a, b),
		Options:      options,
		CorrectIndex: correctIndex,
	}
}

func (s *MathSource) buildOptions(op Operation, a, b, result int) [4]string {
	seen := map[int]struct{}{result: {}}
	candidates := []int{}

	add := func(v int) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		candidates = append(candidates, v)
	}

	add(result + 1)
	add(result - 1)
	add(result + 2)
	add(result - 2)

	switch op {
	case Sub:
		add(b - a)
	case Div:
		if a != 0 {
			add(b / a)
		}
	default:
		add(result + 3)
	}

	for len(candidates) < 3 {
		candidates = append(candidates, result+len(candidates)+10)
	}

	s.rand.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	distractors := candidates[:3]

	all := []int{result, distractors[0], distractors[1], distractors[2]}
	s.rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	var out [4]string
	for i, v := range all {
		out[i] = formatInt(v)
	}
	return out
}

func (s *MathSource) randInRange() int {
	if s.cfg.Max <= s.cfg.Min {
		return s.cfg.Min
	}
	return s.cfg.Min + s.rand.Intn(s.cfg.Max-s.cfg.Min+1)
}

func (s *MathSource) randInRangeNonZero() int {
	for i := 0; i < 32; i++ {
		if v := s.randInRange(); v != 0 {
			return v
		}
	}
	return 1
}

func problemText(op Operation, a, b int) string {
	var symbol string
	switch op {
	case Add:
		symbol = "+"
	case Sub:
		symbol = "-"
	case Mul:
		symbol = "×"
	case Div:
		symbol = "÷"
	}
	return fmt.Sprintf("%d %s %d = ?", a, symbol, b)
}

func formatInt(v int) string {
	return fmt.Sprintf("%d", v)
}

// stableQuestionID hashes (a, op, b) so the same operand pair always
// produces the same question_id, satisfying spec §4.3's "question_id =
// stable hash of (a, op, b)".
func stableQuestionID(a int, op Operation, b int) string {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(int64(a)))
	h.Write(buf[:])
	h.Write([]byte(op))
	binary.BigEndian.PutUint64(buf[:], uint64(int64(b)))
	h.Write(buf[:])
	return hex.EncodeToString(h.Sum(nil))[:16]
}
