package erci

import (
	"net"
	"sync"
	"time"
)

// query performs one send-and-wait-for-reply round trip, the ERCI
// analogue of query.Query and ErciQuery.execute: it installs a filtered
// subscription keyed on the peer address before sending, so a reply can
// never race the send.
type query struct {
	transport *rawTransport
	timeout   time.Duration
}

func (q *query) execute(cmd Cmd, data []byte, addr *net.UDPAddr) (frame, error) {
	var (
		mu     sync.Mutex
		result frame
		got    bool
	)
	done := make(chan struct{})

	cancel := q.transport.subscribe(func(f frame, from *net.UDPAddr) bool {
		if from.IP.String() != addr.IP.String() || from.Port != addr.Port {
			return false
		}
		mu.Lock()
		if !got {
			result = f
			got = true
			close(done)
		}
		mu.Unlock()
		return true
	})
	defer cancel()

	if err := q.transport.send(data, addr); err != nil {
		return frame{}, err
	}

	select {
	case <-done:
		mu.Lock()
		defer mu.Unlock()
		return result, nil
	case <-time.After(q.timeout):
		return frame{}, &TimeoutError{Command: cmd}
	}
}
