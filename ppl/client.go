package ppl

import (
	"fmt"
	"net"
	"sync"
	"time"

	"rbridge/query"
	"rbridge/transport"
	"rbridge/wire"
)

// Client sends PPL commands to a device and waits for replies. A single
// top-level mutex serializes command submission -- the (N+1)th SendCommand
// only starts after the Nth resolves or fails (spec.md §5).
type Client struct {
	transport *transport.Transport
	query     *query.Query
	queryLock sync.Mutex

	mu  sync.Mutex
	log Log
}

// Log is the orchestrator's three-column structured log: response,
// timestamp, message, kept equal length (spec.md §4.5 "Output log").
type Log struct {
	Response  []string `json:"response"`
	Timestamp []string `json:"timestamp"`
	Message   []string `json:"message"`
}

func (l *Log) appendOK() {
	l.Response = append(l.Response, "OK")
	l.Timestamp = append(l.Timestamp, time.Now().Format("15:04:05"))
	l.Message = append(l.Message, "")
}

func (l *Log) appendError(msg string) {
	l.Response = append(l.Response, "ERROR")
	l.Timestamp = append(l.Timestamp, time.Now().Format("15:04:05"))
	l.Message = append(l.Message, msg)
}

// NewClient binds a Client to t with the given per-query timeout.
func NewClient(t *transport.Transport, timeout time.Duration) *Client {
	return &Client{
		transport: t,
		query:     query.New(t, timeout),
	}
}

// SendCommand sends m under cmd within sp to addr and waits for a reply.
// A GenericError reply surfaces as *query.ResponseError.
func (c *Client) SendCommand(sp *wire.SubProtocol, cmd uint8, m *wire.Message, addr *net.UDPAddr, description string) (respCmd uint8, resp *wire.Message, err error) {
	c.queryLock.Lock()
	defer c.queryLock.Unlock()

	respCmd, resp, err = c.query.Execute(sp, cmd, m, addr, description)
	if err != nil {
		return 0, nil, err
	}
	if respCmd == 1 { // GenericError is always command 1
		errMsg, _ := resp.Get("ErrorMsg")
		return respCmd, resp, &query.ResponseError{SubProtocol: sp.Name, Message: fmt.Sprintf("%v", errMsg)}
	}
	return respCmd, resp, nil
}

// Log returns a copy of the client's accumulated structured log.
func (c *Client) Log() Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log
}

func (c *Client) logOK() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.appendOK()
}

func (c *Client) logError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.appendError(msg)
}
