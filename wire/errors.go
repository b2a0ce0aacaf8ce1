package wire

import "fmt"

// VersionError reports a frame whose subprotocol version does not match
// what the Registry expects, carrying enough context for a caller to log
// or react without re-parsing the header (DeserializeVersionError in the
// source protocol).
type VersionError struct {
	SubProtocolID  uint8
	Got            uint16
	Want           uint16
	SequenceNumber uint8
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("wire: subprotocol %d version mismatch: got %d want %d (seq %d)",
		e.SubProtocolID, e.Got, e.Want, e.SequenceNumber)
}
