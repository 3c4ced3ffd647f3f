// Package registry tracks the mapping from session_code to the PID of the
// Session Actor running it, the same shape as
// lguibr-pongo/game/room_manager.go's RoomManagerActor tracks room-ID to
// GameActor PID — generalized from "find or create a room with spare
// capacity" to "look up a session by its human-entered code" and given a
// reap-after-grace-period lifecycle session codes need but game rooms
// didn't.
package registry

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reviewarcade/arcade/internal/actor"
)

// Create asks the registry to track a freshly spawned session under code.
type Create struct {
	Code string
	PID  *actor.PID
}

// Lookup asks the registry for the PID serving code. Reply is *actor.PID or
// an error if unknown.
type Lookup struct {
	Code string
}

// ErrNotFound is the Reply payload when Lookup's code has no live session.
var ErrNotFound = fmt.Errorf("registry: session not found")

// Ended marks code as having reached the ended state: the registry starts
// its reap countdown instead of removing it immediately, so a late
// GET /sessions/{code}/results can still resolve the code to archived
// results through the session actor's own tombstone state.
type Ended struct {
	Code string
}

// List asks for every currently tracked code. Reply is []string.
type List struct{}

type entry struct {
	pid     *actor.PID
	endedAt time.Time // zero if still live
}

// Registry is the actor managing the code→PID map.
type Registry struct {
	engine       *actor.Engine
	gracePeriod  time.Duration
	mu           sync.RWMutex
	entries      map[string]entry
	self         *actor.PID
	stopReap     chan struct{}
}

func NewProducer(engine *actor.Engine, gracePeriod time.Duration) actor.Producer {
	return func() actor.Actor {
		return &Registry{
			engine:      engine,
			gracePeriod: gracePeriod,
			entries:     make(map[string]entry),
			stopReap:    make(chan struct{}),
		}
	}
}

func (r *Registry) Receive(ctx actor.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("stack", string(debug.Stack())).Msg("registry actor panic")
			if ctx.RequestID() != "" {
				ctx.Reply(fmt.Errorf("registry: panic: %v", rec))
			}
		}
	}()

	if r.self == nil {
		r.self = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case actor.Started:
		go r.reapLoop()

	case Create:
		r.mu.Lock()
		r.entries[msg.Code] = entry{pid: msg.PID}
		r.mu.Unlock()

	case Lookup:
		r.mu.RLock()
		e, ok := r.entries[msg.Code]
		r.mu.RUnlock()
		if !ok {
			ctx.Reply(ErrNotFound)
			return
		}
		ctx.Reply(e.pid)

	case Ended:
		r.mu.Lock()
		if e, ok := r.entries[msg.Code]; ok {
			e.endedAt = time.Now()
			r.entries[msg.Code] = e
		}
		r.mu.Unlock()

	case List:
		r.mu.RLock()
		codes := make([]string, 0, len(r.entries))
		for code := range r.entries {
			codes = append(codes, code)
		}
		r.mu.RUnlock()
		ctx.Reply(codes)

	case actor.Stopping:
		close(r.stopReap)

	default:
		if ctx.RequestID() != "" {
			ctx.Reply(fmt.Errorf("registry: unknown message type %T", msg))
		}
	}
}

// reapLoop stops and forgets sessions whose Ended grace period has elapsed.
// Grounded on GameActor's own tick-driven cleanup loop, running on its own
// goroutine rather than the actor's own tick so a slow reap pass never
// blocks Lookup/Create traffic.
func (r *Registry) reapLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopReap:
			return
		case <-ticker.C:
			r.reapOnce()
		}
	}
}

func (r *Registry) reapOnce() {
	now := time.Now()
	r.mu.Lock()
	var toStop []*actor.PID
	for code, e := range r.entries {
		if e.endedAt.IsZero() {
			continue
		}
		if now.Sub(e.endedAt) >= r.gracePeriod {
			toStop = append(toStop, e.pid)
			delete(r.entries, code)
		}
	}
	r.mu.Unlock()

	for _, pid := range toStop {
		r.engine.Stop(pid)
	}
}
