package erci

import (
	"net"
	"sync"
)

// deviceState is the per-peer state StandaloneServer keeps in
// erebStates: {state, config_id, ring_id, antenna_id, configmode_flag}.
type deviceState struct {
	state      State
	configID   uint8
	ringID     uint8
	antennaID  uint8
	configMode uint8
}

func newDeviceState() *deviceState {
	return &deviceState{state: StateReady}
}

// Simulator is an enforcing ERCI device double. Unlike
// original_source/ppl/r3erci/r3erci/standaloneServer.py -- whose handlers
// carry literal "could do some FSM check here" comments and accept any
// command in any state -- this simulator enforces the device state table
// from spec.md §4.6: SELECT_CONFIG only from READY/CONFIGURED, START only
// from CONFIGURED, STOP/SWITCH_RING/SWITCH_ANTENNA only from RUNNING, and
// GET_CSI_QUERY only from RUNNING. Any other attempt gets a COMMAND_RESULT
// carrying WRONG_STATE and a reason, except GET_CSI_QUERY, which is answered
// with a GET_CSI_RESPONSE whose status byte is WRONG_STATE.
type Simulator struct {
	transport *rawTransport
	cancel    func()

	mu     sync.Mutex
	states map[string]*deviceState
}

// NewSimulator opens a raw ERCI socket bound to ownAddr:ownPort and
// starts responding to requests as an enforcing device double.
func NewSimulator(ownAddr string, ownPort int) (*Simulator, error) {
	t, err := listenRaw("erci", ownAddr, ownPort)
	if err != nil {
		return nil, err
	}
	s := &Simulator{transport: t, states: make(map[string]*deviceState)}
	s.cancel = t.subscribe(s.handle)
	return s, nil
}

// LocalAddr returns the address the simulator's socket is bound to.
func (s *Simulator) LocalAddr() *net.UDPAddr {
	return s.transport.localAddr()
}

// Close stops the simulator and releases its socket.
func (s *Simulator) Close() error {
	s.cancel()
	return s.transport.close()
}

func (s *Simulator) deviceFor(addr *net.UDPAddr) *deviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := addr.String()
	d, ok := s.states[key]
	if !ok {
		d = newDeviceState()
		s.states[key] = d
	}
	return d
}

func (s *Simulator) handle(f frame, addr *net.UDPAddr) bool {
	switch f.Cmd {
	case CmdInvalid, CmdCommandResult, CmdStateResponse, CmdDiagnosticDescriptionResponse,
		CmdPassportQueryResponse, CmdGetCSIResponse:
		s.reply(addr, f.Sequence, ResultInvalidMessageReceived, "command should not have been received")
		return true

	case CmdSelectConfig:
		d := s.deviceFor(addr)
		s.mu.Lock()
		defer s.mu.Unlock()
		if d.state != StateReady && d.state != StateConfigured {
			s.reply(addr, f.Sequence, ResultWrongState, "SELECT_CONFIG is only valid in READY or CONFIGURED")
			return true
		}
		d.state = StateConfigured
		d.configID = f.Payload[posSelectConfigID]
		d.ringID = f.Payload[posSelectRingID]
		d.antennaID = f.Payload[posSelectAntennaID]
		s.reply(addr, f.Sequence, ResultSuccess, "selected config")
		return true

	case CmdSwitchRing:
		d := s.deviceFor(addr)
		s.mu.Lock()
		defer s.mu.Unlock()
		if d.state != StateRunning {
			s.reply(addr, f.Sequence, ResultWrongState, "SWITCH_RING is only valid while RUNNING")
			return true
		}
		d.ringID = f.Payload[posSwitchRingRingID]
		d.antennaID = f.Payload[posSwitchRingAntenna]
		s.reply(addr, f.Sequence, ResultSuccess, "switched ring")
		return true

	case CmdStart:
		d := s.deviceFor(addr)
		s.mu.Lock()
		defer s.mu.Unlock()
		if d.state != StateConfigured {
			s.reply(addr, f.Sequence, ResultWrongState, "START is only valid while CONFIGURED")
			return true
		}
		d.state = StateRunning
		s.reply(addr, f.Sequence, ResultSuccess, "started ring")
		return true

	case CmdStop:
		d := s.deviceFor(addr)
		s.mu.Lock()
		defer s.mu.Unlock()
		if d.state != StateRunning {
			s.reply(addr, f.Sequence, ResultWrongState, "STOP is only valid while RUNNING")
			return true
		}
		d.state = StateReady
		d.configID, d.ringID, d.antennaID = 0, 0, 0
		s.reply(addr, f.Sequence, ResultSuccess, "stopped ring")
		return true

	case CmdStateQuery:
		d := s.deviceFor(addr)
		s.mu.Lock()
		payload := []byte{byte(d.state), d.configID, d.ringID, d.antennaID}
		s.mu.Unlock()
		s.transport.send(buildFrame(CmdStateResponse, f.Sequence, payload), addr)
		return true

	case CmdDiagnosticDescriptionQuery:
		msg := append([]byte("erci simulator diagnostic description"), 0)
		s.transport.send(buildFrame(CmdDiagnosticDescriptionResponse, f.Sequence, msg), addr)
		return true

	case CmdSwitchAntenna:
		d := s.deviceFor(addr)
		s.mu.Lock()
		defer s.mu.Unlock()
		if d.state != StateRunning {
			s.reply(addr, f.Sequence, ResultWrongState, "SWITCH_ANTENNA is only valid while RUNNING")
			return true
		}
		d.antennaID = f.Payload[posSwitchAntennaID]
		s.reply(addr, f.Sequence, ResultSuccess, "switched antenna")
		return true

	case CmdSetConfigMode:
		d := s.deviceFor(addr)
		s.mu.Lock()
		d.configMode = f.Payload[posSetConfigModeFlag]
		s.mu.Unlock()
		s.reply(addr, f.Sequence, ResultSuccess, "switched configmode flag")
		return true

	case CmdPassportQuery:
		var mac [MACAddressLength]byte
		copy(mac[:], f.Payload[posPassportMAC:posPassportMAC+MACAddressLength])
		serial := f.Payload[posPassportSerial : posPassportSerial+SerialNumberLen]
		payload := make([]byte, 0, 1+MACAddressLength+SerialNumberLen)
		payload = append(payload, byte(ResultSuccess))
		payload = append(payload, mac[:]...)
		payload = append(payload, serial...)
		s.transport.send(buildFrame(CmdPassportQueryResponse, f.Sequence, payload), addr)
		return true

	case CmdReboot:
		// The source standalone server never answers REBOOT either.
		return true

	case CmdGetCSIQuery:
		d := s.deviceFor(addr)
		s.mu.Lock()
		running := d.state == StateRunning
		s.mu.Unlock()
		if !running {
			payload := []byte{byte(ResultWrongState)}
			s.transport.send(buildFrame(CmdGetCSIResponse, f.Sequence, payload), addr)
			return true
		}
		payload := make([]byte, 1+stationCount*StationIDLength+csiUpperTriangles*CSILength)
		payload[0] = byte(ResultSuccess)
		for i := 0; i < stationCount; i++ {
			payload[1+i*StationIDLength] = byte(uint16(i+1) >> 8)
			payload[1+i*StationIDLength+1] = byte(uint16(i + 1))
		}
		s.transport.send(buildFrame(CmdGetCSIResponse, f.Sequence, payload), addr)
		return true

	default:
		return false
	}
}

func (s *Simulator) reply(addr *net.UDPAddr, seq uint8, code ResultCode, msg string) {
	payload := append([]byte{byte(code)}, append([]byte(msg), 0)...)
	s.transport.send(buildFrame(CmdCommandResult, seq, payload), addr)
}
