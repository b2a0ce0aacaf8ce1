package codec

// tlvLengthCodec is the length packer used by a TLV `data` array: it
// encodes ceil((payload+1)/align) quads on the wire, and on decode
// multiplies the quad count by align and subtracts the 1-byte overhead to
// recover the effective payload length. A decoded quad count <= 1 is
// rejected (a TLV record always carries header + at least one data byte).
type tlvLengthCodec struct {
	align int // bytes per quad, conventionally 4
}

// NewTLVLengthCodec returns the length codec for a TLV `data` array, as
// used by create_array_type(U8Type, length_packer=create_tlv_length_packer())
// in the source protocol: it packs/unpacks a single-byte quad count.
func NewTLVLengthCodec(align int) IntCodec {
	return &tlvLengthCodec{align: align}
}

func (c *tlvLengthCodec) Default() any {
	// Deliberately has no sensible default: a length packer is never used
	// standalone, only inside NewVariableArray as the count codec.
	return uint8(0)
}

func (c *tlvLengthCodec) Validate(v any) (any, bool) {
	i, ok := c.ToInt64(v)
	if !ok || i < 0 {
		return nil, false
	}
	return uint8(i), true
}

func (c *tlvLengthCodec) ToInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	}
	return 0, false
}

func (c *tlvLengthCodec) FromInt64(i int64) any { return uint8(i) }

// Pack expects v to be the effective payload length (the length of the
// `data` array contents, not the quad count).
func (c *tlvLengthCodec) Pack(v any) ([]byte, error) {
	payload, ok := c.ToInt64(v)
	if !ok || payload < 0 {
		return nil, serializeErrorf("invalid tlv payload length %v", v)
	}
	quads := (payload + 1 + int64(c.align) - 1) / int64(c.align)
	if quads > 0xFF {
		return nil, serializeErrorf("tlv quad count %d exceeds one byte", quads)
	}
	return []byte{byte(quads)}, nil
}

// Unpack returns the bytes consumed by the length field (always 1) and the
// effective payload length it encodes.
func (c *tlvLengthCodec) Unpack(data []byte) (int, any, error) {
	if len(data) < 1 {
		return 0, nil, deserializeErrorf("not enough bytes for tlv length")
	}
	quads := int64(data[0])
	if quads <= 1 {
		return 0, nil, deserializeErrorf("tlv length %d is not allowed: header + data require at least 2 quads", quads)
	}
	effective := quads*int64(c.align) - 1
	return 1, effective, nil
}

// NewTLVDataArray returns the Codec for a TLV record's `data` field: a
// byte array whose count prefix is the quad-aligned TLV length above.
func NewTLVDataArray() Codec {
	return NewVariableArray(U8, NewTLVLengthCodec(4))
}
