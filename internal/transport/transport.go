// Package transport carries world messages between the orchestrator and the
// physics world. Only serialised messages cross, never shared memory.
package transport

import (
	"encoding/json"
	"sync"

	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const inboundBuffer = 256

var logger = log.WithField("component", "transport")

// Channel is an ordered, asynchronous message channel. Inbound is never
// closed, receivers select on Done as well.
type Channel interface {
	Send(msg *protocol.Message) error
	Inbound() <-chan *protocol.Message
	Done() <-chan struct{}
	Close() error
}

type pipeEnd struct {
	in     chan *protocol.Message
	peer   *pipeEnd
	done   chan struct{}
	closed *sync.Once
}

// Pipe returns the two connected ends of an in-process channel. Every
// message is encoded and decoded on the way, the receiver never sees the
// sender's values.
func Pipe() (Channel, Channel) {
	done := make(chan struct{})
	once := &sync.Once{}
	a := &pipeEnd{in: make(chan *protocol.Message, inboundBuffer), done: done, closed: once}
	b := &pipeEnd{in: make(chan *protocol.Message, inboundBuffer), done: done, closed: once}
	a.peer, b.peer = b, a
	return a, b
}

func (p *pipeEnd) Send(msg *protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrapf(err, "encode %s", msg.Action)
	}
	copied := &protocol.Message{}
	if err := json.Unmarshal(data, copied); err != nil {
		return errors.Wrapf(err, "decode %s", msg.Action)
	}

	select {
	case <-p.done:
		return errutil.ErrTransportClosed
	default:
	}
	select {
	case p.peer.in <- copied:
		return nil
	case <-p.done:
		return errutil.ErrTransportClosed
	}
}

func (p *pipeEnd) Inbound() <-chan *protocol.Message {
	return p.in
}

func (p *pipeEnd) Done() <-chan struct{} {
	return p.done
}

func (p *pipeEnd) Close() error {
	p.closed.Do(func() { close(p.done) })
	return nil
}
