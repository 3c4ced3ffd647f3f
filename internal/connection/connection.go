// Package connection implements the per-WebSocket actor of spec §1/§4.7:
// one actor owns one gorilla/websocket.Conn, runs a reader and a writer
// pump on their own goroutines, and translates between the wire codec and
// the Session Actor's message types. Grounded on
// lguibr-pongo/server/connection_handler.go's ConnectionHandlerActor —
// same shape (stopReadLoop/readLoopExited channels, sync.Once'd cleanup,
// a goroutine that reports back to the actor's own mailbox on exit) with
// x/net/websocket swapped for gorilla/websocket, the way
// FenixDeveloper-vector-racer-v2's ClientConnection pumps do, so close
// reasons and ping/pong control frames are available.
package connection

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/auth"
	"github.com/reviewarcade/arcade/internal/codec"
	"github.com/reviewarcade/arcade/internal/session"
)

var errActorStopping = errors.New("connection: actor stopping")

// Upgrader is shared across every connection. CheckOrigin accepts every
// origin; the httpapi router adds no origin check of its own either.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HeartbeatConfig carries the two timings spec §4.7 fixes: a ping every
// Interval, a close after Timeout without a pong.
type HeartbeatConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Args configures a single connection actor.
type Args struct {
	Conn              *websocket.Conn
	Engine            *actor.Engine
	SessionPID        *actor.PID
	SessionCode       string
	Heartbeat         HeartbeatConfig
	OutboundQueueSize int
	TeacherVerifier   *auth.TeacherVerifier
	TokenMinter       *auth.PlayerTokenMinter
	// Done, if non-nil, is closed once the actor has fully stopped — the
	// HTTP handler that spawned this actor blocks on it the same way
	// HandleSubscribe blocks on ConnectionHandlerArgs.Done.
	Done chan struct{}
}

// Actor is the per-connection actor.
type Actor struct {
	args Args

	self     *actor.PID
	connAddr string

	outbound chan []byte

	stopPumps   chan struct{}
	readExited  chan struct{}
	writeExited chan struct{}
	closeOnce   sync.Once

	attached bool
	role     string // "host" or "player"
	playerID string

	closeReason string

	lastPongMu sync.Mutex
	lastPongAt time.Time
}

// initDeadline is spec §6.2's handshake rule: the first frame after open
// must be init, or the connection closes with auth_required.
const initDeadline = 5 * time.Second

func NewProducer(args Args) actor.Producer {
	return func() actor.Actor {
		addr := "unknown"
		if args.Conn != nil {
			addr = args.Conn.RemoteAddr().String()
		}
		return &Actor{
			args:        args,
			connAddr:    addr,
			outbound:    make(chan []byte, args.OutboundQueueSize),
			stopPumps:   make(chan struct{}),
			readExited:  make(chan struct{}),
			writeExited: make(chan struct{}),
			lastPongAt:  time.Now(),
		}
	}
}

type rawInbound struct{ data []byte }
type readFailed struct{ err error }
type checkInitDeadline struct{}
type sendPing struct{ t int64 }

func (a *Actor) Receive(ctx actor.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("conn", a.connAddr).Interface("panic", r).Str("stack", string(debug.Stack())).Msg("connection actor panic")
			a.cleanup(fmt.Errorf("panic: %v", r))
		}
	}()

	if a.self == nil {
		a.self = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case actor.Started:
		go a.readPump()
		go a.writePump()
		go a.heartbeatLoop()
		go a.watchInitDeadline()

	case session.Outbound:
		a.sendOut(msg.Msg)

	case rawInbound:
		a.handleRaw(msg.data)

	case checkInitDeadline:
		if !a.attached {
			a.closeReason = "auth_required"
			a.sendOut(codec.NewError("auth_required"))
			a.cleanup(fmt.Errorf("auth_required"))
		}

	case sendPing:
		a.sendOut(codec.NewPing(msg.t))

	case readFailed:
		if errors.Is(msg.err, errHeartbeatTimeout) {
			a.closeReason = "heartbeat_timeout"
		}
		a.cleanup(msg.err)

	case actor.Stopping:
		a.signalAndWaitForPumps()
		a.performCleanupActions(errActorStopping)

	case actor.Stopped:
		a.closeOnce.Do(func() {
			if a.args.Done != nil {
				close(a.args.Done)
			}
		})

	default:
		log.Warn().Str("conn", a.connAddr).Str("type", fmt.Sprintf("%T", msg)).Msg("connection actor: unexpected message")
	}
}

// sendOut encodes a server->client message and enqueues it for the writer
// pump, disconnecting on a full queue per spec §4.7's slow-consumer rule.
func (a *Actor) sendOut(msg interface{}) {
	raw, err := codec.Encode(msg)
	if err != nil {
		log.Error().Str("conn", a.connAddr).Err(err).Msg("failed to encode outbound message")
		return
	}
	select {
	case a.outbound <- raw:
	default:
		log.Warn().Str("conn", a.connAddr).Msg("outbound queue full, disconnecting slow consumer")
		a.closeReason = "slow_consumer"
		a.cleanup(fmt.Errorf("slow_consumer"))
	}
}

func (a *Actor) cleanup(reason error) {
	a.signalAndWaitForPumps()
	a.performCleanupActions(reason)
	if !errors.Is(reason, errActorStopping) && a.args.Engine != nil && a.self != nil {
		a.args.Engine.Stop(a.self)
	}
}

func (a *Actor) signalAndWaitForPumps() {
	select {
	case <-a.stopPumps:
		return
	default:
		close(a.stopPumps)
	}
	if a.args.Conn != nil {
		_ = a.args.Conn.Close()
	}
	select {
	case <-a.readExited:
	case <-time.After(2 * time.Second):
		log.Warn().Str("conn", a.connAddr).Msg("timed out waiting for read pump to exit")
	}
}

func (a *Actor) watchInitDeadline() {
	select {
	case <-a.stopPumps:
	case <-time.After(initDeadline):
		a.args.Engine.Send(a.self, checkInitDeadline{}, nil)
	}
}

func (a *Actor) performCleanupActions(reason error) {
	if a.attached && a.args.SessionPID != nil {
		a.args.Engine.Send(a.args.SessionPID, session.Disconnect{ConnPID: a.self, Role: a.role}, a.self)
	}
	a.attached = false
	_ = reason
}
