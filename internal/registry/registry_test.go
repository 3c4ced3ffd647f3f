package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewarcade/arcade/internal/actor"
)

type noopActor struct{}

func (noopActor) Receive(ctx actor.Context) {}

func newTestRegistry(t *testing.T, grace time.Duration) (*actor.Engine, *actor.PID) {
	t.Helper()
	engine := actor.NewEngine()
	pid := engine.Spawn(actor.NewProps(func() actor.Actor { return NewProducer(engine, grace)() }))
	return engine, pid
}

func TestRegistry_CreateThenLookup(t *testing.T) {
	engine, regPID := newTestRegistry(t, time.Minute)
	sessionPID := engine.Spawn(actor.NewProps(func() actor.Actor { return noopActor{} }))

	engine.Send(regPID, Create{Code: "ABCD12", PID: sessionPID}, nil)
	time.Sleep(20 * time.Millisecond)

	reply, err := engine.Ask(regPID, Lookup{Code: "ABCD12"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, sessionPID, reply.(*actor.PID))
}

func TestRegistry_LookupUnknownCodeReturnsNotFound(t *testing.T) {
	engine, regPID := newTestRegistry(t, time.Minute)

	_, err := engine.Ask(regPID, Lookup{Code: "NOPE00"}, time.Second)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_ListReturnsAllTrackedCodes(t *testing.T) {
	engine, regPID := newTestRegistry(t, time.Minute)
	for _, code := range []string{"AAA111", "BBB222"} {
		pid := engine.Spawn(actor.NewProps(func() actor.Actor { return noopActor{} }))
		engine.Send(regPID, Create{Code: code, PID: pid}, nil)
	}
	time.Sleep(20 * time.Millisecond)

	reply, err := engine.Ask(regPID, List{}, time.Second)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAA111", "BBB222"}, reply.([]string))
}
