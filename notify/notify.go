// Package notify republishes an engine's change-notification stream on
// a ZeroMQ PUB socket for out-of-process observers, extending spec.md's
// "observers re-query the engine" pattern across a process boundary
// without ever mutating engine state itself.
//
// Grounded on sheetcore/kernel.Kernel's socket-creation/teardown shape
// (kernel.go's createSocket/Shutdown), narrowed from the Jupyter
// five-socket wiring protocol down to the single PUB socket this
// module's one-way broadcast actually needs.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/go-zeromq/zmq4"

	"sheetcore/engine"
)

// Event is the message published on every engine mutation.
type Event struct {
	Version  int64       `json:"version"`
	Affected []EventCell `json:"affected"`
}

// EventCell is one changed coordinate, sheet-qualified.
type EventCell struct {
	Sheet string `json:"sheet"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
}

// Publisher owns a PUB socket bound to one address and republishes an
// engine's mutation stream on it, one JSON frame per Event.
type Publisher struct {
	sock   zmq4.Socket
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewPublisher binds a PUB socket at addr (e.g. "tcp://127.0.0.1:5556")
// and subscribes to eng's mutation stream.
func NewPublisher(eng *engine.Engine, addr string) (*Publisher, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewPub(ctx)
	if err := sock.Listen(addr); err != nil {
		cancel()
		return nil, fmt.Errorf("notify: bind %s: %w", addr, err)
	}
	p := &Publisher{sock: sock, cancel: cancel}
	eng.Subscribe(p.onMutation)
	return p, nil
}

func (p *Publisher) onMutation(version int64, affected []engine.CellKey) {
	cells := make([]EventCell, len(affected))
	for i, k := range affected {
		cells[i] = EventCell{Sheet: k.Sheet, Row: k.Row, Col: k.Col}
	}
	payload, err := json.Marshal(Event{Version: version, Affected: cells})
	if err != nil {
		log.Printf("notify: marshal event: %v", err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if err := p.sock.Send(zmq4.NewMsg(payload)); err != nil {
		log.Printf("notify: publish: %v", err)
	}
}

// Close tears down the PUB socket. Mutations after Close are dropped
// silently, matching a Subscribe listener with no remaining effect.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.cancel()
	return p.sock.Close()
}
