package actor

// Context is handed to Actor.Receive for each message. It exposes the
// capabilities an actor needs to react: who it is, who sent the message, the
// message itself, the Engine (to Send/Spawn/Stop), and — for a message that
// arrived via Engine.Ask — a way to Reply to the asker.
type Context interface {
	Engine() *Engine
	Self() *PID
	Sender() *PID
	Message() interface{}

	// RequestID is non-empty when the current message was sent via
	// Engine.Ask and a reply is expected. Handlers that branch on whether a
	// reply is owed should check this rather than assuming every call site
	// used Ask.
	RequestID() string

	// Reply answers an Ask call. It is a no-op if RequestID() is empty.
	Reply(message interface{})
}

type context struct {
	engine    *Engine
	self      *PID
	sender    *PID
	message   interface{}
	requestID string
}

func (c *context) Engine() *Engine      { return c.engine }
func (c *context) Self() *PID           { return c.self }
func (c *context) Sender() *PID         { return c.sender }
func (c *context) Message() interface{} { return c.message }
func (c *context) RequestID() string    { return c.requestID }

func (c *context) Reply(message interface{}) {
	if c.requestID == "" {
		return
	}
	c.engine.deliverReply(c.requestID, message)
}
