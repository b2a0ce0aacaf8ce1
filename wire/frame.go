package wire

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the length in bytes of the frame header: u16 total length,
// u8 sequence number, u8 subprotocol id, u16 version. The command byte
// that follows belongs to the subprotocol body, not the header, but is
// always the first byte of it -- so a frame's smallest meaningful unit on
// the wire is HeaderSize+1 bytes.
const HeaderSize = 6

// PacketSizeLimit is the largest subprotocol body (command byte included)
// SerializeMessage will produce.
const PacketSizeLimit = 1400

// SerializeMessage packs m under cmd within sp and prefixes the frame
// header, mirroring serialize_message in the source protocol.
func SerializeMessage(sp *SubProtocol, cmd uint8, m *Message, sequenceNumber uint8) ([]byte, error) {
	body, err := sp.Pack(cmd, m)
	if err != nil {
		return nil, err
	}
	if len(body) > PacketSizeLimit {
		return nil, fmt.Errorf("wire: packet of length %d exceeds limit of %d", len(body), PacketSizeLimit)
	}
	hdr := make([]byte, HeaderSize, HeaderSize+len(body))
	binary.BigEndian.PutUint16(hdr[0:2], uint16(len(body)+HeaderSize))
	hdr[2] = sequenceNumber
	hdr[3] = sp.ID
	binary.BigEndian.PutUint16(hdr[4:6], sp.Version)
	return append(hdr, body...), nil
}

// DeserializeMessage reads a frame header out of data, looks up its
// subprotocol in reg, and unpacks the body. A version mismatch returns a
// *VersionError so a caller can distinguish it from a malformed packet.
func DeserializeMessage(reg *Registry, data []byte) (sequenceNumber uint8, subProtocolID uint8, cmd uint8, msg *Message, err error) {
	if len(data) < HeaderSize {
		return 0, 0, 0, nil, fmt.Errorf("wire: too small packet: %d bytes", len(data))
	}
	length := binary.BigEndian.Uint16(data[0:2])
	sequenceNumber = data[2]
	subProtocolID = data[3]
	version := binary.BigEndian.Uint16(data[4:6])

	sp, ok := reg.Lookup(subProtocolID)
	if !ok {
		return sequenceNumber, subProtocolID, 0, nil, fmt.Errorf("wire: unregistered subprotocol %d", subProtocolID)
	}
	if version != sp.Version {
		return sequenceNumber, subProtocolID, 0, nil, &VersionError{
			SubProtocolID:  subProtocolID,
			Got:            version,
			Want:           sp.Version,
			SequenceNumber: sequenceNumber,
		}
	}
	if int(length) != len(data) {
		return sequenceNumber, subProtocolID, 0, nil, fmt.Errorf(
			"wire: packet has superfluous bytes: header says %d, have %d", length, len(data))
	}
	cmd, msg, err = sp.Unpack(data[HeaderSize:])
	if err != nil {
		return sequenceNumber, subProtocolID, 0, nil, err
	}
	return sequenceNumber, subProtocolID, cmd, msg, nil
}
