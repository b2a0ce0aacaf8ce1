// Package transport implements the non-blocking UDP dispatcher shared by
// the PPL and ERCI clients: one socket, a background receive loop, and a
// list of subscribers notified (under a single dispatch lock) of every
// frame that decodes successfully, mirroring UdpServer in the source
// protocol.
package transport

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"rbridge/logging"
	"rbridge/wire"
)

// Subscriber is notified of every successfully decoded frame. It returns
// true if it consumed the packet (matching the bool return of the
// source's async subscriber callables, used only for logging un-handled
// packets).
type Subscriber func(subProtocolID, sequence, cmd uint8, msg *wire.Message, addr *net.UDPAddr) bool

// Transport owns one UDP socket for a tag (used in debug log lines, e.g.
// "ppl" or "erci"), a frame registry, and the subscriber list.
type Transport struct {
	tag      string
	registry *wire.Registry

	conn *net.UDPConn
	seq  uint32

	subMu       sync.Mutex
	subscribers map[int]Subscriber
	nextSubID   int

	dispatchMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// Listen opens a UDP socket bound to ownAddr:ownPort (best-effort
// SO_REUSEADDR/SO_REUSEPORT, matching openSocket in the source protocol)
// and starts the background receive loop.
func Listen(tag string, registry *wire.Registry, ownAddr string, ownPort int) (*Transport, error) {
	addr := fmt.Sprintf("%s:%d", ownAddr, ownPort)
	conn, err := listenUDPReusable(addr)
	if err != nil {
		logging.DebugConnectError(tag, addr, err)
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}

	t := &Transport{
		tag:         tag,
		registry:    registry,
		conn:        conn,
		subscribers: make(map[int]Subscriber),
		done:        make(chan struct{}),
	}
	logging.DebugConnectSuccess(tag, addr, "udp socket bound")
	go t.receiveLoop()
	return t, nil
}

// NextSequenceNumber returns the next frame sequence number, wrapping mod
// 256, matching UdpServer.getNextSeq.
func (t *Transport) NextSequenceNumber() uint8 {
	return uint8(atomic.AddUint32(&t.seq, 1) & 0xFF)
}

// LocalAddr returns the address the transport's socket is bound to.
func (t *Transport) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

// Send frames m under cmd within sp using sequenceNumber, and writes it to
// addr.
func (t *Transport) Send(sp *wire.SubProtocol, cmd uint8, m *wire.Message, sequenceNumber uint8, addr *net.UDPAddr) error {
	framed, err := wire.SerializeMessage(sp, cmd, m, sequenceNumber)
	if err != nil {
		return fmt.Errorf("transport: serialize: %w", err)
	}
	logging.DebugTX(t.tag, framed)
	if _, err := t.conn.WriteToUDP(framed, addr); err != nil {
		return fmt.Errorf("transport: write to %s: %w", addr, err)
	}
	return nil
}

// Subscribe registers sub to be notified of every decoded frame and
// returns a Cancel function that removes it. This replaces the source
// protocol's subscribe/unsubscribe pair with a single scoped handle.
func (t *Transport) Subscribe(sub Subscriber) (cancel func()) {
	t.subMu.Lock()
	id := t.nextSubID
	t.nextSubID++
	t.subscribers[id] = sub
	t.subMu.Unlock()

	return func() {
		t.subMu.Lock()
		delete(t.subscribers, id)
		t.subMu.Unlock()
	}
}

// SubscriberCount returns the number of currently registered subscriptions,
// filtered and unfiltered alike.
func (t *Transport) SubscriberCount() int {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	return len(t.subscribers)
}

// FilterOptions narrows a filtered subscription to frames matching the
// given subprotocol id, sequence number, and/or source address, matching
// subscriberFilterContext in the source protocol.
type FilterOptions struct {
	SubProtocolID *uint8
	Sequence      *uint8
	SourceAddr    *string
}

// SubscribeFiltered wraps sub so it only runs for frames matching opts,
// and returns the Cancel function for the underlying subscription.
func (t *Transport) SubscribeFiltered(opts FilterOptions, sub Subscriber) (cancel func()) {
	wrapped := func(subProtocolID, sequence, cmd uint8, msg *wire.Message, addr *net.UDPAddr) bool {
		if opts.SubProtocolID != nil && *opts.SubProtocolID != subProtocolID {
			return false
		}
		if opts.Sequence != nil && *opts.Sequence != sequence {
			return false
		}
		if opts.SourceAddr != nil && *opts.SourceAddr != addr.IP.String() {
			return false
		}
		return sub(subProtocolID, sequence, cmd, msg, addr)
	}
	return t.Subscribe(wrapped)
}

// Close shuts down the receive loop and the socket.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

func (t *Transport) receiveLoop() {
	buf := make([]byte, 2048)
	for {
		select {
		case <-t.done:
			return
		default:
		}
		t.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-t.done:
				return
			default:
				logging.DebugError(t.tag, "receive", err)
				continue
			}
		}
		data := append([]byte{}, buf[:n]...)
		logging.DebugRX(t.tag, data)

		sequence, subProtocolID, cmd, msg, err := wire.DeserializeMessage(t.registry, data)
		if err != nil {
			logging.DebugLog(t.tag, "could not deserialize packet from %s: %v", addr, err)
			continue
		}
		t.dispatch(subProtocolID, sequence, cmd, msg, addr)
	}
}

func (t *Transport) dispatch(subProtocolID, sequence, cmd uint8, msg *wire.Message, addr *net.UDPAddr) {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()

	t.subMu.Lock()
	subs := make([]Subscriber, 0, len(t.subscribers))
	for _, s := range t.subscribers {
		subs = append(subs, s)
	}
	t.subMu.Unlock()

	processed := false
	for _, s := range subs {
		if s(subProtocolID, sequence, cmd, msg, addr) {
			processed = true
		}
	}
	if !processed {
		logging.DebugLog(t.tag, "received an unprocessed packet: subprotocol=%d seq=%d cmd=%d from %s",
			subProtocolID, sequence, cmd, addr)
	}
}
