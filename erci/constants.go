// Package erci implements the client, wire framing, and simulator for the
// ring-switched antenna control protocol: a small fixed/variable-length
// UDP protocol distinct from PPL's typed subprotocol registry. Grounded on
// original_source/ppl/r3erci/r3erci/{constants,client,standaloneServer}.py.
package erci

import "fmt"

// ReservedValue and ProtocolVersion are the first two header bytes of
// every frame.
const (
	ReservedValue   = 0x00
	ProtocolVersion = 0x03
)

// Port is the well-known ERCI UDP port.
const Port = 12200

const (
	MACAddressLength  = 6
	SerialNumberLen   = 26
	StationIDLength   = 2
	CSILength         = 4
	stationCount      = 20
	csiUpperTriangles = stationCount * (stationCount - 1) / 2 // 190
)

// State is the device's operating state, reported by STATE_RESPONSE.
type State uint8

const (
	StateInvalid State = iota
	StateStartup
	StateReady
	StateRunning
	StateReconfiguring
	StateFault
	StateMaintenance
	StateConfigured
)

func (s State) String() string {
	switch s {
	case StateInvalid:
		return "INVALID"
	case StateStartup:
		return "STARTUP"
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateReconfiguring:
		return "RECONFIGURING"
	case StateFault:
		return "FAULT"
	case StateMaintenance:
		return "MAINTENANCE"
	case StateConfigured:
		return "CONFIGURED"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Cmd identifies the frame's command byte.
type Cmd uint8

const (
	CmdInvalid                        Cmd = 0
	CmdSelectConfig                    Cmd = 1
	CmdSwitchRing                      Cmd = 2
	CmdStart                           Cmd = 3
	CmdStop                            Cmd = 4
	CmdCommandResult                   Cmd = 5
	CmdStateQuery                      Cmd = 6
	CmdStateResponse                   Cmd = 7
	CmdDiagnosticDescriptionQuery      Cmd = 8
	CmdDiagnosticDescriptionResponse   Cmd = 9
	CmdSwitchAntenna                   Cmd = 10
	CmdSetConfigMode                   Cmd = 11
	CmdPassportQuery                   Cmd = 12
	CmdPassportQueryResponse           Cmd = 13
	CmdReboot                          Cmd = 128
	CmdGetCSIQuery                     Cmd = 129
	CmdGetCSIResponse                  Cmd = 130
)

func (c Cmd) String() string {
	switch c {
	case CmdInvalid:
		return "INVALID"
	case CmdSelectConfig:
		return "SELECT_CONFIG"
	case CmdSwitchRing:
		return "SWITCH_RING"
	case CmdStart:
		return "START"
	case CmdStop:
		return "STOP"
	case CmdCommandResult:
		return "COMMAND_RESULT"
	case CmdStateQuery:
		return "STATE_QUERY"
	case CmdStateResponse:
		return "STATE_RESPONSE"
	case CmdDiagnosticDescriptionQuery:
		return "DIAGNOSTIC_DESCRIPTION_QUERY"
	case CmdDiagnosticDescriptionResponse:
		return "DIAGNOSTIC_DESCRIPTION_RESPONSE"
	case CmdSwitchAntenna:
		return "SWITCH_ANTENNA"
	case CmdSetConfigMode:
		return "SET_CONFIGMODE"
	case CmdPassportQuery:
		return "PASSPORT_QUERY"
	case CmdPassportQueryResponse:
		return "PASSPORT_QUERY_RESPONSE"
	case CmdReboot:
		return "REBOOT"
	case CmdGetCSIQuery:
		return "GET_CSI_QUERY"
	case CmdGetCSIResponse:
		return "GET_CSI_RESPONSE"
	default:
		return fmt.Sprintf("Cmd(%d)", uint8(c))
	}
}

// ResultCode is carried in COMMAND_RESULT and the status byte of several
// response frames.
type ResultCode uint8

const (
	ResultInvalid                 ResultCode = 0
	ResultSuccess                 ResultCode = 65
	ResultGenericError            ResultCode = 70
	ResultWrongState              ResultCode = 71
	ResultInvalidMessageReceived  ResultCode = 72
	ResultInvalidDataReceived     ResultCode = 73
	ResultNoConfigAvailable       ResultCode = 74
)

func (r ResultCode) String() string {
	switch r {
	case ResultInvalid:
		return "INVALID"
	case ResultSuccess:
		return "SUCCESS"
	case ResultGenericError:
		return "GENERIC_ERROR"
	case ResultWrongState:
		return "WRONG_STATE"
	case ResultInvalidMessageReceived:
		return "INVALID_MESSAGE_RECEIVED"
	case ResultInvalidDataReceived:
		return "INVALID_DATA_RECEIVED"
	case ResultNoConfigAvailable:
		return "NO_CONFIG_AVAILABLE"
	default:
		return fmt.Sprintf("ResultCode(%d)", uint8(r))
	}
}

// header byte offsets, common to every frame.
const (
	posReserved = 0
	posVersion  = 1
	posCommand  = 2
	posSequence = 3
)

// per-command payload byte offsets, from constants.py's ErciPos* enums.
const (
	posSelectConfigID     = 4
	posSelectRingID       = 5
	posSelectAntennaID    = 6
	posSwitchRingRingID   = 4
	posSwitchRingAntenna  = 5
	posCmdResultCode      = 4
	posCmdResultMsgStart  = 5
	posStateRespState     = 4
	posStateRespConfigID  = 5
	posStateRespRingID    = 6
	posStateRespAntennaID = 7
	posDiagDescMsgStart   = 4
	posSwitchAntennaID    = 4
	posSetConfigModeFlag  = 4
	posPassportMAC        = 4
	posPassportSerial     = 10
	posPassportRespCode   = 4
	posPassportRespMAC    = 5
	posPassportRespSerial = 11
	posCSIRespCode        = 4
	posCSIRespStaID       = 5
	posCSIRespCSI         = 45
)

// lengthKind distinguishes the three length-validation rules GetPacketLength
// applies, per constants.py's PacketLengthType.
type lengthKind int

const (
	lengthExact lengthKind = iota
	lengthMinimum
	lengthMaximum
)

// packetLength reproduces GetPacketLength: the wire length (or minimum/
// maximum bound) and the kind of bound it is, for every known command.
// Unrecognized commands fall through to the source's default case (4,
// MINIMUM), matching its trailing `else` branch.
func packetLength(cmd Cmd) (int, lengthKind) {
	switch cmd {
	case CmdSelectConfig:
		return 7, lengthExact
	case CmdSwitchRing:
		return 6, lengthExact
	case CmdStart, CmdStop, CmdStateQuery, CmdDiagnosticDescriptionQuery, CmdReboot:
		return 4, lengthExact
	case CmdCommandResult:
		return 6, lengthMinimum
	case CmdStateResponse:
		return 8, lengthExact
	case CmdDiagnosticDescriptionResponse:
		return 5, lengthMinimum
	case CmdSwitchAntenna:
		return 5, lengthExact
	case CmdSetConfigMode:
		return 5, lengthExact
	case CmdPassportQuery:
		return 36, lengthExact
	case CmdPassportQueryResponse:
		return 37, lengthExact
	case CmdGetCSIResponse:
		// header(4) + status(1) + 20 station ids(2B) + 190 upper-triangular
		// SNR values(4B), though a WRONG_STATE reply is much shorter.
		return 4 + 1 + stationCount*StationIDLength + csiUpperTriangles*CSILength, lengthMaximum
	default:
		return 4, lengthMinimum
	}
}

// checkLength validates n against cmd's length rule, mirroring both
// receiveHandler's generic header-length check and sendPacket/
// send_command's specific per-command check.
func checkLength(cmd Cmd, n int) error {
	le, kind := packetLength(cmd)
	switch kind {
	case lengthExact:
		if n != le {
			return fmt.Errorf("erci: wrong frame length for %s (%dB vs expected exactly %dB)", cmd, n, le)
		}
	case lengthMinimum:
		if n < le {
			return fmt.Errorf("erci: short frame for %s (%dB vs expected at least %dB)", cmd, n, le)
		}
	case lengthMaximum:
		if n > le {
			return fmt.Errorf("erci: long frame for %s (%dB vs expected at most %dB)", cmd, n, le)
		}
	}
	return nil
}
