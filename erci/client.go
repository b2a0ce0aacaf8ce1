package erci

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Client is a single ERCI command-and-control session. Unlike PPL's
// Client, which queues overlapping SendCommand calls behind a blocking
// mutex, ERCI's source client checks queryLock.locked() before attempting
// to acquire it and fails immediately -- reproduced here with a
// non-blocking sync.Mutex.TryLock guard rather than a semaphore.
type Client struct {
	transport *rawTransport
	q         query
	timeout   time.Duration

	seqMu sync.Mutex
	seq   uint8

	busy sync.Mutex
}

// NewClient opens a raw ERCI socket bound to ownAddr:ownPort and returns a
// Client ready to send commands.
func NewClient(ownAddr string, ownPort int, timeout time.Duration) (*Client, error) {
	t, err := listenRaw("erci", ownAddr, ownPort)
	if err != nil {
		return nil, err
	}
	return &Client{transport: t, q: query{transport: t, timeout: timeout}, timeout: timeout}, nil
}

// Close releases the client's socket.
func (c *Client) Close() error {
	return c.transport.close()
}

func (c *Client) nextSeq() uint8 {
	c.seqMu.Lock()
	defer c.seqMu.Unlock()
	c.seq++
	return c.seq
}

func buildFrame(cmd Cmd, seq uint8, payload []byte) []byte {
	data := make([]byte, 0, 4+len(payload))
	data = append(data, ReservedValue, ProtocolVersion, byte(cmd), seq)
	return append(data, payload...)
}

func validateID(name string, v uint8) error {
	if v < 1 {
		return fmt.Errorf("erci: argument %s needs to be in the range 1..255", name)
	}
	return nil
}

// sendAndDecode reproduces send_command's lock check, frame build, and
// _send_command_and_handle_response round trip for any command that
// expects a reply.
func (c *Client) sendAndDecode(addr *net.UDPAddr, cmd Cmd, payload []byte) (any, error) {
	if !c.busy.TryLock() {
		return nil, &ErrResourceLocked{}
	}
	defer c.busy.Unlock()

	seq := c.nextSeq()
	data := buildFrame(cmd, seq, payload)

	resp, err := c.q.execute(cmd, data, addr)
	if err != nil {
		return nil, err
	}
	if resp.Sequence != seq {
		return nil, &ResponseError{
			Command: resp.Cmd,
			Message: fmt.Sprintf("mismatching sequence number: %d -> %d", seq, resp.Sequence),
		}
	}
	return decodeResponse(resp)
}

// SelectConfig assigns a device to a config/ring/antenna, moving it from
// READY to CONFIGURED.
func (c *Client) SelectConfig(addr *net.UDPAddr, configID, ringID, antennaID uint8) (*CommandResult, error) {
	for name, v := range map[string]uint8{"config_id": configID, "ring_id": ringID, "antenna_id": antennaID} {
		if err := validateID(name, v); err != nil {
			return nil, err
		}
	}
	r, err := c.sendAndDecode(addr, CmdSelectConfig, []byte{configID, ringID, antennaID})
	return asCommandResult(r, err)
}

// SwitchRing moves a RUNNING device to a different ring and antenna
// without leaving RUNNING.
func (c *Client) SwitchRing(addr *net.UDPAddr, ringID, antennaID uint8) (*CommandResult, error) {
	for name, v := range map[string]uint8{"ring_id": ringID, "antenna_id": antennaID} {
		if err := validateID(name, v); err != nil {
			return nil, err
		}
	}
	r, err := c.sendAndDecode(addr, CmdSwitchRing, []byte{ringID, antennaID})
	return asCommandResult(r, err)
}

// Start moves a CONFIGURED device to RUNNING.
func (c *Client) Start(addr *net.UDPAddr) (*CommandResult, error) {
	r, err := c.sendAndDecode(addr, CmdStart, nil)
	return asCommandResult(r, err)
}

// Stop moves a RUNNING device back to READY, clearing its config/ring/
// antenna to invalid.
func (c *Client) Stop(addr *net.UDPAddr) (*CommandResult, error) {
	r, err := c.sendAndDecode(addr, CmdStop, nil)
	return asCommandResult(r, err)
}

// StateQuery reads the device's current {state, config_id, ring_id,
// antenna_id}.
func (c *Client) StateQuery(addr *net.UDPAddr) (*StateResponse, error) {
	r, err := c.sendAndDecode(addr, CmdStateQuery, nil)
	if err != nil {
		return nil, err
	}
	sr, ok := r.(*StateResponse)
	if !ok {
		return nil, &ResponseError{Command: CmdStateQuery, Message: "unexpected response type"}
	}
	return sr, nil
}

// DiagnosticDescriptionQuery reads the device's free-text diagnostic
// description.
func (c *Client) DiagnosticDescriptionQuery(addr *net.UDPAddr) (*DiagnosticDescription, error) {
	r, err := c.sendAndDecode(addr, CmdDiagnosticDescriptionQuery, nil)
	if err != nil {
		return nil, err
	}
	dr, ok := r.(*DiagnosticDescription)
	if !ok {
		return nil, &ResponseError{Command: CmdDiagnosticDescriptionQuery, Message: "unexpected response type"}
	}
	return dr, nil
}

// SwitchAntenna moves a RUNNING device to a different antenna on its
// current ring.
func (c *Client) SwitchAntenna(addr *net.UDPAddr, antennaID uint8) (*CommandResult, error) {
	if err := validateID("antenna_id", antennaID); err != nil {
		return nil, err
	}
	r, err := c.sendAndDecode(addr, CmdSwitchAntenna, []byte{antennaID})
	return asCommandResult(r, err)
}

// SetConfigMode toggles the device's configuration mode flag (0 or 1).
func (c *Client) SetConfigMode(addr *net.UDPAddr, flag uint8) (*CommandResult, error) {
	if flag != 0 && flag != 1 {
		return nil, fmt.Errorf("erci: argument configmode_flag needs to be 0 or 1")
	}
	r, err := c.sendAndDecode(addr, CmdSetConfigMode, []byte{flag})
	return asCommandResult(r, err)
}

// PassportQuery sends the device's claimed MAC and serial number for
// verification and returns the device's acceptance status.
func (c *Client) PassportQuery(addr *net.UDPAddr, mac [MACAddressLength]byte, serial string) (*PassportResponse, error) {
	serialBytes, err := padSerial(serial)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 0, MACAddressLength+SerialNumberLen)
	payload = append(payload, mac[:]...)
	payload = append(payload, serialBytes...)

	r, err := c.sendAndDecode(addr, CmdPassportQuery, payload)
	if err != nil {
		return nil, err
	}
	pr, ok := r.(*PassportResponse)
	if !ok {
		return nil, &ResponseError{Command: CmdPassportQuery, Message: "unexpected response type"}
	}
	return pr, nil
}

// Reboot requests a device reboot. The standalone simulator (and, per its
// source comments, the real firmware) never replies to REBOOT, so this
// is fire-and-forget rather than a query.
func (c *Client) Reboot(addr *net.UDPAddr) error {
	if !c.busy.TryLock() {
		return &ErrResourceLocked{}
	}
	defer c.busy.Unlock()
	seq := c.nextSeq()
	return c.transport.send(buildFrame(CmdReboot, seq, nil), addr)
}

// GetCSI requests the channel state information matrix from a RUNNING
// device.
func (c *Client) GetCSI(addr *net.UDPAddr) (*CSIResponse, error) {
	r, err := c.sendAndDecode(addr, CmdGetCSIQuery, nil)
	if err != nil {
		return nil, err
	}
	cr, ok := r.(*CSIResponse)
	if !ok {
		return nil, &ResponseError{Command: CmdGetCSIQuery, Message: "unexpected response type"}
	}
	return cr, nil
}

func asCommandResult(r any, err error) (*CommandResult, error) {
	if err != nil {
		return nil, err
	}
	cr, ok := r.(*CommandResult)
	if !ok {
		return nil, &ResponseError{Message: "unexpected response type"}
	}
	return cr, nil
}

// ParseMAC accepts either "AABBCCDDEEFF" or colon-separated
// "AA:BB:CC:DD:EE:FF" hex, matching send_command's two accepted forms.
func ParseMAC(s string) ([MACAddressLength]byte, error) {
	var mac [MACAddressLength]byte
	var tokens []string
	switch {
	case len(s) == MACAddressLength*2+(MACAddressLength-1):
		tokens = strings.Split(s, ":")
		if len(tokens) != MACAddressLength {
			return mac, fmt.Errorf("erci: mac_address must be 6 hex bytes (optionally separated by colons): AABBCCDDEEFF or AA:BB:CC:DD:EE:FF")
		}
	case len(s) == MACAddressLength*2:
		for i := 0; i < len(s); i += 2 {
			tokens = append(tokens, s[i:i+2])
		}
	default:
		return mac, fmt.Errorf("erci: mac_address must be 6 hex bytes (optionally separated by colons): AABBCCDDEEFF or AA:BB:CC:DD:EE:FF")
	}
	for i, tok := range tokens {
		b, err := hex.DecodeString(tok)
		if err != nil || len(b) != 1 {
			return mac, fmt.Errorf("erci: mac_address must be 6 hex bytes (optionally separated by colons): AABBCCDDEEFF or AA:BB:CC:DD:EE:FF")
		}
		mac[i] = b[0]
	}
	return mac, nil
}

// padSerial ASCII-encodes and NUL-pads serial to SerialNumberLen, erroring
// if it is already longer.
func padSerial(serial string) ([]byte, error) {
	b := []byte(serial)
	if len(b) > SerialNumberLen {
		return nil, fmt.Errorf("erci: serial_number must be length %d but is %d", SerialNumberLen, len(b))
	}
	padded := make([]byte, SerialNumberLen)
	copy(padded, b)
	return padded, nil
}
