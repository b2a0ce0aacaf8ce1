package ppl

import (
	"fmt"

	"rbridge/codec"
	"rbridge/wire"
)

// tlvRecordCodec adapts wire.PackTLVRecord/UnpackTLVRecord to the codec.Codec
// interface so DeviceDiagnostics can be declared as an ordinary PacketType
// field instead of a bespoke packet kind.
type tlvRecordCodec struct{}

func (tlvRecordCodec) Default() any { return wire.TLVRecord{} }

func (tlvRecordCodec) Validate(v any) (any, bool) {
	r, ok := v.(wire.TLVRecord)
	return r, ok
}

func (tlvRecordCodec) Pack(v any) ([]byte, error) {
	r, ok := v.(wire.TLVRecord)
	if !ok {
		return nil, fmt.Errorf("ppl: %v is not a wire.TLVRecord", v)
	}
	return wire.PackTLVRecord(r)
}

func (tlvRecordCodec) Unpack(data []byte) (int, any, error) {
	n, r, err := wire.UnpackTLVRecord(data)
	if err != nil {
		return 0, nil, err
	}
	return n, r, nil
}

// TLVRecordCodec is the field codec for a TLV component/valueId/data
// triple, used by DeviceDiagnostics.
var TLVRecordCodec codec.Codec = tlvRecordCodec{}
