package query

import (
	"net"
	"time"

	"rbridge/transport"
	"rbridge/wire"
)

// Query runs one-shot request/response exchanges over a Transport,
// matching replies to requests by subprotocol id and source address (the
// same correlation PplQuery.execute uses -- it does not filter by
// sequence number, relying on queryLock to serialize callers instead).
type Query struct {
	transport *transport.Transport
	timeout   time.Duration
}

// New returns a Query bound to t with the given response timeout.
func New(t *transport.Transport, timeout time.Duration) *Query {
	return &Query{transport: t, timeout: timeout}
}

type response struct {
	cmd uint8
	msg *wire.Message
}

// Execute sends m under cmd within sp to addr and waits for the first
// frame from addr belonging to the same subprotocol. description names
// the request for TimeoutError's message.
func (q *Query) Execute(sp *wire.SubProtocol, cmd uint8, m *wire.Message, addr *net.UDPAddr, description string) (respCmd uint8, respMsg *wire.Message, err error) {
	subID := sp.ID
	addrStr := addr.IP.String()

	results := make(chan response, 1)
	cancel := q.transport.SubscribeFiltered(
		transport.FilterOptions{SubProtocolID: &subID, SourceAddr: &addrStr},
		func(_, _, cmd uint8, msg *wire.Message, _ *net.UDPAddr) bool {
			select {
			case results <- response{cmd, msg}:
			default:
			}
			return true
		},
	)
	defer cancel()

	seq := q.transport.NextSequenceNumber()
	if err := q.transport.Send(sp, cmd, m, seq, addr); err != nil {
		return 0, nil, err
	}

	select {
	case r := <-results:
		return r.cmd, r.msg, nil
	case <-time.After(q.timeout):
		return 0, nil, &TimeoutError{Description: description, Timeout: q.timeout.String()}
	}
}
