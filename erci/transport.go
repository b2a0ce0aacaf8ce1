package erci

import (
	"fmt"
	"net"
	"sync"
	"time"

	"rbridge/logging"
	"rbridge/transport"
)

// frame is a decoded ERCI datagram: the header fields plus whatever
// payload followed them.
type frame struct {
	Cmd      Cmd
	Sequence uint8
	Payload  []byte
}

func decodeFrame(data []byte) (frame, error) {
	le, kind := packetLength(CmdInvalid)
	_ = kind
	if len(data) < le {
		return frame{}, fmt.Errorf("erci: short frame (%dB vs expected at least %dB)", len(data), le)
	}
	if data[posReserved] != ReservedValue {
		return frame{}, fmt.Errorf("erci: reserved field not %d but %d", ReservedValue, data[posReserved])
	}
	if data[posVersion] != ProtocolVersion {
		return frame{}, fmt.Errorf("erci: version field not %d but %d", ProtocolVersion, data[posVersion])
	}
	cmd := Cmd(data[posCommand])
	seq := data[posSequence]
	if err := checkLength(cmd, len(data)); err != nil {
		return frame{}, err
	}
	return frame{Cmd: cmd, Sequence: seq, Payload: data}, nil
}

// subscriber is notified of every decoded frame from a given peer. It
// returns true if it consumed the frame, mirroring UdpServer's dispatch
// accounting.
type subscriber func(f frame, addr *net.UDPAddr) bool

// rawTransport owns one UDP socket speaking raw ERCI frames (no
// wire.Registry subprotocol framing) -- the ERCI analogue of
// transport.Transport, grounded on the same
// original_source/ppl/r3erci/r3erci/udpServer.py.
type rawTransport struct {
	tag  string
	conn *net.UDPConn

	subMu       sync.Mutex
	subscribers map[int]subscriber
	nextSubID   int

	dispatchMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

func listenRaw(tag, ownAddr string, ownPort int) (*rawTransport, error) {
	addr := fmt.Sprintf("%s:%d", ownAddr, ownPort)
	conn, err := transport.ListenUDPReusable(addr)
	if err != nil {
		logging.DebugConnectError(tag, addr, err)
		return nil, fmt.Errorf("erci: listen %s: %w", addr, err)
	}
	t := &rawTransport{
		tag:         tag,
		conn:        conn,
		subscribers: make(map[int]subscriber),
		done:        make(chan struct{}),
	}
	logging.DebugConnectSuccess(tag, addr, "udp socket bound")
	go t.receiveLoop()
	return t, nil
}

func (t *rawTransport) localAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

func (t *rawTransport) send(data []byte, addr *net.UDPAddr) error {
	logging.DebugTX(t.tag, data)
	_, err := t.conn.WriteToUDP(data, addr)
	if err != nil {
		return fmt.Errorf("erci: write to %s: %w", addr, err)
	}
	return nil
}

func (t *rawTransport) subscribe(sub subscriber) (cancel func()) {
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

func (t *rawTransport) close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

func (t *rawTransport) receiveLoop() {
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

		f, err := decodeFrame(data)
		if err != nil {
			logging.DebugLog(t.tag, "could not decode frame from %s: %v", addr, err)
			continue
		}
		t.dispatch(f, addr)
	}
}

func (t *rawTransport) dispatch(f frame, addr *net.UDPAddr) {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()

	t.subMu.Lock()
	subs := make([]subscriber, 0, len(t.subscribers))
	for _, s := range t.subscribers {
		subs = append(subs, s)
	}
	t.subMu.Unlock()

	processed := false
	for _, s := range subs {
		if s(f, addr) {
			processed = true
		}
	}
	if !processed {
		logging.DebugLog(t.tag, "received an unprocessed frame: cmd=%s seq=%d from %s", f.Cmd, f.Sequence, addr)
	}
}
