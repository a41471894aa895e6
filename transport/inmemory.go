package transport

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when using a closed in-memory transport.
var ErrClosed = errors.New("transport: closed")

// chanBufferSize is the depth of each in-memory channel.
const chanBufferSize = 128

// InMemory implements JSON-RPC transport over in-process channels. It is
// useful for testing handlers without I/O and for wiring components of the
// same process together. Transports are created in connected pairs; raw
// payloads written to one side arrive on the other.
type InMemory struct {
	recv chan []byte
	send chan []byte

	// closed is shared by both sides of a pair, so closing either side
	// stops the other.
	closed    chan struct{}
	closeOnce *sync.Once
}

// NewInMemoryPair creates two connected in-memory transports. Payloads sent
// on one side are received by the other, and vice versa. Typically one side
// serves while the other drives it:
//
//	serverSide, clientSide := transport.NewInMemoryPair()
//	go serverSide.Serve(ctx, srv)
//	reply, err := clientSide.SendAndReceive(ctx, []byte(`{"jsonrpc":"2.0","method":"echo","id":1}`))
func NewInMemoryPair() (*InMemory, *InMemory) {
	ab := make(chan []byte, chanBufferSize)
	ba := make(chan []byte, chanBufferSize)
	closed := make(chan struct{})
	once := &sync.Once{}

	a := &InMemory{recv: ba, send: ab, closed: closed, closeOnce: once}
	b := &InMemory{recv: ab, send: ba, closed: closed, closeOnce: once}

	return a, b
}

// Addr returns the transport address.
func (m *InMemory) Addr() string {
	return "inmemory"
}

// Serve processes payloads from the peer until the context is canceled or
// either side is closed. Replies are sent back to the peer; notifications
// produce none.
func (m *InMemory) Serve(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.closed:
			return nil
		case data := <-m.recv:
			reply := handler.Call(ctx, data)
			if reply == nil {
				continue
			}

			select {
			case m.send <- reply:
			case <-ctx.Done():
				return ctx.Err()
			case <-m.closed:
				return nil
			}
		}
	}
}

// Send delivers a raw payload to the peer.
func (m *InMemory) Send(ctx context.Context, data []byte) error {
	select {
	case <-m.closed:
		return ErrClosed
	default:
	}

	select {
	case m.send <- data:
		return nil
	case <-m.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits for the next payload from the peer.
func (m *InMemory) Receive(ctx context.Context) ([]byte, error) {
	select {
	case data := <-m.recv:
		return data, nil
	case <-m.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendAndReceive delivers a payload to the peer and waits for the next
// reply. It assumes the peer answers every payload, so it is not suitable
// for notifications.
func (m *InMemory) SendAndReceive(ctx context.Context, data []byte) ([]byte, error) {
	if err := m.Send(ctx, data); err != nil {
		return nil, err
	}
	return m.Receive(ctx)
}

// Close shuts down the pair. A serving peer stops; pending and future
// sends and receives fail with ErrClosed.
func (m *InMemory) Close() {
	m.closeOnce.Do(func() {
		close(m.closed)
	})
}
