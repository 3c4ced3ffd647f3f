package actor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrTimeout is returned by Ask when no Reply arrives within the deadline.
var ErrTimeout = errors.New("actor: ask timed out")

// Engine owns the lifecycle and message dispatch of every actor spawned
// through it.
type Engine struct {
	pidCounter uint64
	actors     map[string]*process
	mu         sync.RWMutex
	stopping   atomic.Bool

	pending   map[string]chan interface{}
	pendingMu sync.Mutex
}

// NewEngine creates an empty actor engine.
func NewEngine() *Engine {
	return &Engine{
		actors:  make(map[string]*process),
		pending: make(map[string]chan interface{}),
	}
}

func (e *Engine) nextPID() *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{ID: fmt.Sprintf("actor-%d", id)}
}

// Spawn starts a new actor from Props and returns its PID, or nil if the
// engine is shutting down.
func (e *Engine) Spawn(props *Props) *PID {
	if e.stopping.Load() {
		log.Warn().Msg("actor engine is stopping, refusing to spawn")
		return nil
	}

	pid := e.nextPID()
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	go proc.run()
	e.Send(pid, Started{}, nil)

	return pid
}

// Send delivers message to pid asynchronously. sender may be nil for
// messages originating outside the actor system (e.g. an HTTP handler).
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	if pid == nil {
		return
	}
	e.send(pid, message, sender, "")
}

func (e *Engine) send(pid *PID, message interface{}, sender *PID, requestID string) {
	_, isStopping := message.(Stopping)
	isSystem := isStopping
	if e.stopping.Load() && !isSystem {
		return
	}

	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()

	if !ok {
		if requestID != "" {
			e.deliverReply(requestID, fmt.Errorf("actor: %s not found", pid.ID))
		}
		return
	}
	proc.sendMessage(&messageEnvelope{sender: sender, message: message, requestID: requestID})
}

// Ask sends message to pid and blocks until the actor calls ctx.Reply, the
// timeout elapses (ErrTimeout), or the actor cannot be found.
func (e *Engine) Ask(pid *PID, message interface{}, timeout time.Duration) (interface{}, error) {
	if pid == nil {
		return nil, fmt.Errorf("actor: nil pid")
	}

	requestID := uuid.NewString()
	reply := make(chan interface{}, 1)

	e.pendingMu.Lock()
	e.pending[requestID] = reply
	e.pendingMu.Unlock()

	defer func() {
		e.pendingMu.Lock()
		delete(e.pending, requestID)
		e.pendingMu.Unlock()
	}()

	e.send(pid, message, nil, requestID)

	select {
	case v := <-reply:
		if err, ok := v.(error); ok {
			return nil, err
		}
		return v, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

func (e *Engine) deliverReply(requestID string, message interface{}) {
	e.pendingMu.Lock()
	ch, ok := e.pending[requestID]
	e.pendingMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- message:
	default:
	}
}

// Stop asks the actor at pid to wind down. It is asynchronous; the actor
// finishes processing Stopping and any in-flight message before its
// goroutine exits.
func (e *Engine) Stop(pid *PID) {
	if pid == nil {
		return
	}
	e.mu.RLock()
	_, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	if ok {
		e.send(pid, Stopping{}, nil, "")
	}
}

func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// Shutdown stops every live actor and waits up to timeout for them to exit.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		return
	}

	e.mu.RLock()
	pids := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		pids = append(pids, proc.pid)
	}
	e.mu.RUnlock()

	for _, pid := range pids {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		e.mu.RLock()
		remaining := len(e.actors)
		e.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}

	e.mu.Lock()
	remaining := len(e.actors)
	if remaining > 0 {
		log.Warn().Int("remaining", remaining).Msg("actor engine shutdown timed out, forcing removal")
		e.actors = make(map[string]*process)
	}
	e.mu.Unlock()
}

// Count returns the number of live actors. Used for diagnostics/health checks.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.actors)
}
