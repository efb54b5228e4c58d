package actor

// Actor is the behaviour of one actor instance: it registers the handlers
// its messages are dispatched to. An actor may also implement [Starter]
// and [Stopper].
type Actor interface {
	Register(r HandlerRegistrar)
}

// Starter is implemented by actors that need a hook before the first message.
type Starter interface {
	Started(c Context)
}

// Stopper is implemented by actors that need a hook after the last message.
type Stopper interface {
	Stopped(c Context)
}

// Producer creates a fresh actor instance for each spawn.
type Producer func() Actor

// Props describes how to create an actor. Props are immutable; the With
// methods return a copy.
type Props struct {
	producer Producer
	mailbox  MailboxPolicy
}

// PropsFromProducer returns props spawning the actor built by producer with
// an unbounded mailbox.
func PropsFromProducer(producer Producer) *Props {
	if producer == nil {
		panic("actor: nil producer")
	}
	return &Props{producer: producer, mailbox: Unbounded()}
}

// PropsFromHandlers returns props spawning an actor made of regs only.
func PropsFromHandlers(regs ...HandlerRegistration) *Props {
	return PropsFromProducer(func() Actor { return TypedHandlers(regs...) })
}

// WithMailbox returns a copy of p using policy.
func (p *Props) WithMailbox(policy MailboxPolicy) *Props {
	cp := *p
	cp.mailbox = policy
	return &cp
}

// Mailbox returns the mailbox policy of p.
func (p *Props) Mailbox() MailboxPolicy { return p.mailbox }
