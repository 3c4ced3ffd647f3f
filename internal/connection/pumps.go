package connection

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/reviewarcade/arcade/internal/codec"
)

// writeWait bounds a single frame write, the way FenixDeveloper-vector-racer-v2's
// writePump bounds every websocket.WriteMessage call.
const writeWait = 10 * time.Second

// readPump owns the socket's read side: every inbound frame is handed back
// to the actor's own mailbox as rawInbound so all decoding and state
// mutation happens on the actor goroutine, never here. Each frame re-arms
// the read deadline, so a connection that keeps sending frames stays open.
func (a *Actor) readPump() {
	defer close(a.readExited)

	a.args.Conn.SetReadLimit(codec.MaxMessageBytes + 1024)
	_ = a.args.Conn.SetReadDeadline(time.Now().Add(a.args.Heartbeat.Timeout))

	for {
		_, data, err := a.args.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Str("conn", a.connAddr).Err(err).Msg("websocket read error")
			}
			a.args.Engine.Send(a.self, readFailed{err: err}, nil)
			return
		}

		select {
		case <-a.stopPumps:
			return
		default:
		}

		_ = a.args.Conn.SetReadDeadline(time.Now().Add(a.args.Heartbeat.Timeout))

		cp := make([]byte, len(data))
		copy(cp, data)
		a.args.Engine.Send(a.self, rawInbound{data: cp}, nil)
	}
}

// writePump owns the socket's write side: it drains the outbound channel
// and flushes a WS-level ping on its own ticker so intermediate proxies see
// regular control traffic, independent of the application-level ping/pong
// (heartbeatLoop below, pong handling in handshake.go) that spec §4.7's
// heartbeat actually gates on.
func (a *Actor) writePump() {
	defer close(a.writeExited)

	wsPing := time.NewTicker(a.args.Heartbeat.Interval)
	defer wsPing.Stop()

	for {
		select {
		case <-a.stopPumps:
			_ = a.args.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = a.args.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, a.closeReason))
			return

		case raw, ok := <-a.outbound:
			if !ok {
				return
			}
			_ = a.args.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := a.args.Conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				log.Debug().Str("conn", a.connAddr).Err(err).Msg("websocket write error")
				a.args.Engine.Send(a.self, readFailed{err: err}, nil)
				return
			}

		case <-wsPing.C:
			_ = a.args.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := a.args.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// heartbeatLoop implements spec §4.7's application-level heartbeat: a
// ping{t} every Interval, and a close with heartbeat_timeout if no pong has
// arrived within Timeout. This is deliberately separate from writePump's
// WS-level control-frame ping above — a client answers the JSON ping with a
// JSON pong message, not a WS pong control frame.
func (a *Actor) heartbeatLoop() {
	ticker := time.NewTicker(a.args.Heartbeat.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopPumps:
			return
		case <-ticker.C:
			a.lastPongMu.Lock()
			last := a.lastPongAt
			a.lastPongMu.Unlock()

			if time.Since(last) > a.args.Heartbeat.Timeout {
				log.Info().Str("conn", a.connAddr).Msg("heartbeat timeout, closing connection")
				a.args.Engine.Send(a.self, readFailed{err: errHeartbeatTimeout}, nil)
				return
			}
			a.args.Engine.Send(a.self, sendPing{t: time.Now().UnixMilli()}, nil)
		}
	}
}
