package wire

import (
	"encoding/binary"
	"fmt"

	"rbridge/codec"
)

// TLVRecord is the component/valueId/data triple used by the DEVICE_CONTROL
// subprotocol's DeviceDiagnostics packet, ported from
// create_tlv_packet_type in the source protocol. Its wire length prefix
// (see codec.NewTLVLengthCodec) covers component and valueId as well as
// data, not data alone, which is why it is handled as its own type rather
// than a PacketType with an ordinary TLV-array field.
type TLVRecord struct {
	Component uint8
	ValueID   uint16
	Data      []byte
}

var tlvLength = codec.NewTLVLengthCodec(4)

// PackTLVRecord encodes r as: tlv-length byte, component byte, valueId
// (u16 BE), data bytes.
func PackTLVRecord(r TLVRecord) ([]byte, error) {
	payload := make([]byte, 3+len(r.Data))
	payload[0] = r.Component
	binary.BigEndian.PutUint16(payload[1:3], r.ValueID)
	copy(payload[3:], r.Data)

	lenBytes, err := tlvLength.Pack(len(payload))
	if err != nil {
		return nil, fmt.Errorf("wire: packing tlv record: %w", err)
	}
	return append(lenBytes, payload...), nil
}

// UnpackTLVRecord decodes a TLVRecord from the front of data, returning
// the number of bytes consumed.
func UnpackTLVRecord(data []byte) (int, TLVRecord, error) {
	n, effVal, err := tlvLength.Unpack(data)
	if err != nil {
		return 0, TLVRecord{}, fmt.Errorf("wire: unpacking tlv record length: %w", err)
	}
	effective, _ := tlvLength.ToInt64(effVal)
	rest := data[n:]
	if int64(len(rest)) < effective {
		return 0, TLVRecord{}, fmt.Errorf("wire: tlv record truncated: need %d bytes, have %d", effective, len(rest))
	}
	payload := rest[:effective]
	if len(payload) < 3 {
		return 0, TLVRecord{}, fmt.Errorf("wire: tlv record payload too short for component/valueId: %d bytes", len(payload))
	}
	r := TLVRecord{
		Component: payload[0],
		ValueID:   binary.BigEndian.Uint16(payload[1:3]),
		Data:      append([]byte{}, payload[3:]...),
	}
	return n + int(effective), r, nil
}
