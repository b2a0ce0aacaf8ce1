package erci

import (
	"encoding/binary"
	"fmt"
)

// CommandResult is the decoded COMMAND_RESULT payload shared by
// SELECT_CONFIG, SWITCH_RING, START, STOP, SWITCH_ANTENNA and SET_CONFIGMODE
// acknowledgements.
type CommandResult struct {
	Code    ResultCode
	Message string
	Success bool
}

// StateResponse is the decoded STATE_RESPONSE payload.
type StateResponse struct {
	State     State
	ConfigID  uint8
	RingID    uint8
	AntennaID uint8
}

// DiagnosticDescription is the decoded DIAGNOSTIC_DESCRIPTION_RESPONSE
// payload.
type DiagnosticDescription struct {
	Description string
}

// PassportResponse is the decoded PASSPORT_QUERY_RESPONSE payload.
type PassportResponse struct {
	Code    ResultCode
	Success bool
	MAC     [MACAddressLength]byte
	Serial  string
}

// CSIResponse is the decoded GET_CSI_RESPONSE payload. StationIDs holds
// this station's id followed by the other 19 observed ids; SNR holds the
// N*(N-1)/2 upper-triangular values in row-major order (row i holding the
// comparisons against stations i+1..N-1), scaled by 1/2^24, valid only
// when Success is true.
type CSIResponse struct {
	Code       ResultCode
	Success    bool
	StationIDs [stationCount]uint16
	SNR        [csiUpperTriangles]float64
}

// requestOnlyCmd reports whether cmd is one of the request-only commands
// _handle_response rejects outright if seen as a reply.
func requestOnlyCmd(cmd Cmd) bool {
	switch cmd {
	case CmdInvalid, CmdSelectConfig, CmdSwitchRing, CmdStart, CmdStop,
		CmdStateQuery, CmdDiagnosticDescriptionQuery, CmdPassportQuery,
		CmdReboot, CmdGetCSIQuery:
		return true
	default:
		return false
	}
}

// decodeResponse reproduces _handle_response's per-type decode, given a
// frame that has already passed header/version/sequence/length checks.
func decodeResponse(f frame) (any, error) {
	if requestOnlyCmd(f.Cmd) {
		return nil, &ResponseError{Command: f.Cmd, Message: fmt.Sprintf("%s should not have been received", f.Cmd)}
	}

	switch f.Cmd {
	case CmdCommandResult:
		data := f.Payload
		if data[len(data)-1] != 0 {
			return nil, &ResponseError{Command: f.Cmd, Message: "the status message is not NUL terminated"}
		}
		code := ResultCode(data[posCmdResultCode])
		msg := string(data[posCmdResultMsgStart : len(data)-1])
		return &CommandResult{Code: code, Message: msg, Success: code == ResultSuccess}, nil

	case CmdStateResponse:
		data := f.Payload
		state := State(data[posStateRespState])
		return &StateResponse{
			State:     state,
			ConfigID:  data[posStateRespConfigID],
			RingID:    data[posStateRespRingID],
			AntennaID: data[posStateRespAntennaID],
		}, nil

	case CmdDiagnosticDescriptionResponse:
		data := f.Payload
		if data[len(data)-1] != 0 {
			return nil, &ResponseError{Command: f.Cmd, Message: "the description is not NUL terminated"}
		}
		return &DiagnosticDescription{Description: string(data[posDiagDescMsgStart : len(data)-1])}, nil

	case CmdPassportQueryResponse:
		data := f.Payload
		code := ResultCode(data[posPassportRespCode])
		var mac [MACAddressLength]byte
		copy(mac[:], data[posPassportRespMAC:posPassportRespMAC+MACAddressLength])
		serial := string(data[posPassportRespSerial : posPassportRespSerial+SerialNumberLen])
		return &PassportResponse{Code: code, Success: code == ResultSuccess, MAC: mac, Serial: serial}, nil

	case CmdGetCSIResponse:
		data := f.Payload
		code := ResultCode(data[posCSIRespCode])
		resp := &CSIResponse{Code: code, Success: code == ResultSuccess}
		if code != ResultSuccess {
			return resp, nil
		}
		for i := 0; i < stationCount; i++ {
			off := posCSIRespStaID + i*StationIDLength
			resp.StationIDs[i] = binary.BigEndian.Uint16(data[off : off+StationIDLength])
		}
		for i := 0; i < csiUpperTriangles; i++ {
			off := posCSIRespCSI + i*CSILength
			raw := binary.BigEndian.Uint32(data[off : off+CSILength])
			resp.SNR[i] = float64(raw) / 16777216.0
		}
		return resp, nil

	default:
		return nil, &ResponseError{Command: f.Cmd, Message: "unhandled response type"}
	}
}
