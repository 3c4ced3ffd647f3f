package actor

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

const defaultMailboxSize = 1024

// process is the running instance of an actor: its mailbox, its state, and
// the goroutine that drains the mailbox one message at a time.
type process struct {
	engine  *Engine
	pid     *PID
	actor   Actor
	props   *Props
	mailbox chan *messageEnvelope
	stopCh  chan struct{}
	stopped bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, defaultMailboxSize),
		stopCh:  make(chan struct{}),
	}
}

// sendMessage enqueues a message without blocking. A full mailbox drops the
// message rather than stalling the sender — mailbox overflow here means an
// actor is falling behind, which the caller's own backpressure handling
// (e.g. a session's bounded connection queues) should already be preventing.
func (p *process) sendMessage(envelope *messageEnvelope) {
	select {
	case p.mailbox <- envelope:
	default:
		log.Warn().Str("actor", p.pid.ID).Str("type", fmt.Sprintf("%T", envelope.message)).Msg("actor mailbox full, dropping message")
	}
}

func (p *process) run() {
	defer func() {
		p.stopped = true
		p.invokeReceive(Stopped{}, nil, "")
		p.engine.remove(p.pid)
	}()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("actor", p.pid.ID).Interface("panic", r).Str("stack", string(debug.Stack())).Msg("actor panicked")
			p.stopped = true
		}
	}()

	p.actor = p.props.produce()
	if p.actor == nil {
		panic("actor: producer returned nil actor for " + p.pid.ID)
	}

	for {
		select {
		case <-p.stopCh:
			return
		case envelope := <-p.mailbox:
			if p.stopped {
				continue
			}
			switch msg := envelope.message.(type) {
			case Started:
				p.invokeReceive(msg, envelope.sender, envelope.requestID)
			case Stopping:
				p.stopped = true
				p.invokeReceive(msg, envelope.sender, envelope.requestID)
				closeOnce(p.stopCh)
			default:
				p.invokeReceive(envelope.message, envelope.sender, envelope.requestID)
			}
		}
	}
}

func (p *process) invokeReceive(msg interface{}, sender *PID, requestID string) {
	ctx := &context{
		engine:    p.engine,
		self:      p.pid,
		sender:    sender,
		message:   msg,
		requestID: requestID,
	}
	p.actor.Receive(ctx)
}

func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}
