package actor

// Producer constructs a fresh Actor instance. The Engine calls it exactly
// once per Spawn, on the actor's own goroutine.
type Producer func() Actor

// Props configures how an actor is constructed.
type Props struct {
	producer Producer
}

// NewProps wraps a Producer in a Props suitable for Engine.Spawn.
func NewProps(producer Producer) *Props {
	if producer == nil {
		panic("actor: producer cannot be nil")
	}
	return &Props{producer: producer}
}

func (p *Props) produce() Actor {
	return p.producer()
}
