package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxMessageBytes bounds any single inbound frame, per spec §4.1.
const MaxMessageBytes = 64 * 1024

// ErrBadMessage is returned for any frame that fails schema validation:
// missing/unrecognized type, payload too large, or a required field absent.
var ErrBadMessage = errors.New("bad_message")

// Direction selects which tagged union a frame is checked against.
type Direction int

const (
	ClientToServer Direction = iota
	ServerToClient
)

type entry struct {
	new      func() any
	validate func(any) error
}

var clientTags = map[string]entry{
	"init":           {new: func() any { return &Init{} }, validate: validateInit},
	"death":          {new: func() any { return &Death{} }, validate: validateDeath},
	"answer":         {new: func() any { return &Answer{} }, validate: validateAnswer},
	"score_update":   {new: func() any { return &ScoreUpdate{} }, validate: validateNoop},
	"special_event":  {new: func() any { return &SpecialEvent{} }, validate: validateNoop},
	"start_session":  {new: func() any { return &StartSession{} }, validate: validateNoop},
	"pause_session":  {new: func() any { return &PauseSession{} }, validate: validateNoop},
	"resume_session": {new: func() any { return &ResumeSession{} }, validate: validateNoop},
	"end_session":    {new: func() any { return &EndSession{} }, validate: validateNoop},
	"pong":           {new: func() any { return &Pong{} }, validate: validateNoop},
}

var serverTags = map[string]entry{
	"host_state":          {new: func() any { return &HostState{} }, validate: validateNoop},
	"player_state":        {new: func() any { return &PlayerState{} }, validate: validateNoop},
	"player_connected":    {new: func() any { return &PlayerConnected{} }, validate: validateNoop},
	"player_disconnected": {new: func() any { return &PlayerDisconnected{} }, validate: validateNoop},
	"session_started":     {new: func() any { return &SessionStarted{} }, validate: validateNoop},
	"session_paused":      {new: func() any { return &SessionPaused{} }, validate: validateNoop},
	"session_resumed":     {new: func() any { return &SessionResumed{} }, validate: validateNoop},
	"session_ended":       {new: func() any { return &SessionEnded{} }, validate: validateNoop},
	"question":            {new: func() any { return &QuestionMsg{} }, validate: validateNoop},
	"answer_correct":      {new: func() any { return &AnswerCorrect{} }, validate: validateNoop},
	"answer_wrong":        {new: func() any { return &AnswerWrong{} }, validate: validateNoop},
	"leaderboard_update":  {new: func() any { return &LeaderboardUpdate{} }, validate: validateNoop},
	"live_event":          {new: func() any { return &LiveEvent{} }, validate: validateNoop},
	"player_score_update": {new: func() any { return &PlayerScoreUpdate{} }, validate: validateNoop},
	"ping":                {new: func() any { return &Ping{} }, validate: validateNoop},
	"error":               {new: func() any { return &ErrorMsg{} }, validate: validateNoop},
}

func registryFor(dir Direction) map[string]entry {
	if dir == ClientToServer {
		return clientTags
	}
	return serverTags
}

type envelope struct {
	Type string `json:"type"`
}

// Decode validates and unmarshals a single frame against the schema for the
// given direction. It rejects frames over MaxMessageBytes, frames with no
// `type`, and frames whose `type` is not recognized for that direction.
// Unknown fields are ignored (encoding/json's default); fields required by a
// message's own validator but absent produce ErrBadMessage.
func Decode(dir Direction, raw []byte) (string, any, error) {
	if len(raw) > MaxMessageBytes {
		return "", nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrBadMessage, MaxMessageBytes)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if env.Type == "" {
		return "", nil, fmt.Errorf("%w: missing type", ErrBadMessage)
	}

	reg := registryFor(dir)
	e, ok := reg[env.Type]
	if !ok {
		return "", nil, fmt.Errorf("%w: unrecognized type %q", ErrBadMessage, env.Type)
	}

	msg := e.new()
	if err := json.Unmarshal(raw, msg); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if err := e.validate(msg); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}

	return env.Type, msg, nil
}

// Encode marshals a server->client message. Callers are expected to use the
// New* constructors in construct.go, which stamp the `type` tag.
func Encode(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func validateNoop(any) error { return nil }

func validateInit(m any) error {
	v := m.(*Init)
	if v.Role != "host" && v.Role != "player" {
		return errors.New("role must be host or player")
	}
	if v.Role == "player" && (v.PlayerToken == "" || v.PlayerID == "") {
		return errors.New("player init requires player_id and player_token")
	}
	if v.Role == "host" && v.TeacherAuth == "" {
		return errors.New("host init requires teacher_auth")
	}
	return nil
}

func validateDeath(m any) error {
	v := m.(*Death)
	if v.Score < 0 {
		return errors.New("score must be >= 0")
	}
	return nil
}

func validateAnswer(m any) error {
	v := m.(*Answer)
	if v.QuestionID == "" {
		return errors.New("question_id required")
	}
	if v.AnswerIndex < 0 || v.AnswerIndex > 3 {
		return errors.New("answer_index must be in [0,3]")
	}
	if v.TimeMs < 0 {
		return errors.New("time_ms must be >= 0")
	}
	return nil
}
