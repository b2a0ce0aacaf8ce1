package codec

import (
	"net"
	"reflect"
	"testing"
)

func roundTrip(t *testing.T, c Codec, v any) {
	t.Helper()
	nv, ok := c.Validate(v)
	if !ok {
		t.Fatalf("Validate(%v) rejected a value it should accept", v)
	}
	packed, err := c.Pack(nv)
	if err != nil {
		t.Fatalf("Pack(%v) failed: %v", nv, err)
	}
	n, decoded, err := c.Unpack(packed)
	if err != nil {
		t.Fatalf("Unpack(%x) failed: %v", packed, err)
	}
	if n != len(packed) {
		t.Fatalf("Unpack consumed %d bytes, expected %d", n, len(packed))
	}
	if !reflect.DeepEqual(decoded, nv) {
		t.Fatalf("round trip mismatch: got %#v, want %#v", decoded, nv)
	}
}

func TestIntegerRoundTrips(t *testing.T) {
	cases := []struct {
		name string
		c    Codec
		v    any
	}{
		{"u8", U8, uint8(200)},
		{"i8", I8, int8(-100)},
		{"u16", U16, uint16(40000)},
		{"i16", I16, int16(-30000)},
		{"u32", U32, uint32(4000000000)},
		{"i32", I32, int32(-2000000000)},
		{"u64", U64, uint64(1) << 60},
		{"i64", I64, int64(-1) << 50},
		{"u8le", U8LE, uint8(1)},
		{"u16le", U16LE, uint16(0x1234)},
		{"u32le", U32LE, uint32(0xdeadbeef)},
		{"u64le", U64LE, uint64(0x0102030405060708)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) { roundTrip(t, tc.c, tc.v) })
	}
}

func TestIntegerDefaults(t *testing.T) {
	for _, c := range []Codec{U8, I8, U16, I16, U32, I32, U64, I64} {
		roundTrip(t, c, c.Default())
	}
}

func TestU16BigEndianByteOrder(t *testing.T) {
	b, err := U16.Pack(uint16(0x0102))
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 0x01 || b[1] != 0x02 {
		t.Fatalf("expected big-endian bytes [01 02], got %x", b)
	}
}

func TestU16LittleEndianByteOrder(t *testing.T) {
	b, err := U16LE.Pack(uint16(0x0102))
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 0x02 || b[1] != 0x01 {
		t.Fatalf("expected little-endian bytes [02 01], got %x", b)
	}
}

func TestFloatRoundTrips(t *testing.T) {
	roundTrip(t, Float32BE, float32(3.25))
	roundTrip(t, Float64BE, float64(-12.5))
	roundTrip(t, Float32LE, float32(1.5))
	roundTrip(t, Float64LE, float64(99.0))
}

func TestIPv4RoundTrip(t *testing.T) {
	roundTrip(t, IPv4BE, net.ParseIP("192.168.1.1"))
	roundTrip(t, IPv4LE, net.ParseIP("10.0.0.5"))
}

func TestIPv4Default(t *testing.T) {
	roundTrip(t, IPv4BE, IPv4BE.Default())
}

func TestMACRoundTrip(t *testing.T) {
	mac, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	roundTrip(t, MAC, mac)
}

func TestMACDefault(t *testing.T) {
	roundTrip(t, MAC, MAC.Default())
}

func TestSizedStringRoundTrip(t *testing.T) {
	roundTrip(t, SizedString, "hello world")
	roundTrip(t, SizedString, "")
}

func TestSizedStringRejectsEmbeddedNul(t *testing.T) {
	if _, ok := SizedString.Validate("a\x00b"); ok {
		t.Fatal("expected embedded NUL to be rejected")
	}
}

func TestSizedStringLatin1EncodeUTF8DecodeAsymmetry(t *testing.T) {
	// A rune in 0x80-0xFF packs fine under Latin-1 encoding (one byte per
	// rune) but, taken alone, is not valid UTF-8 -- so Unpack must reject
	// it. This is the documented, intentional asymmetry (see DESIGN.md).
	s := string(rune(0xE9)) // 'é' as a single Latin-1 code point
	nv, ok := SizedString.Validate(s)
	if !ok {
		t.Fatal("expected validate to accept a single Latin-1-range rune")
	}
	packed, err := SizedString.Pack(nv)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if len(packed) != 3 || packed[2] != 0xE9 {
		t.Fatalf("expected single Latin-1 byte 0xE9, got %x", packed)
	}
	if _, _, err := SizedString.Unpack(packed); err == nil {
		t.Fatal("expected Unpack to reject the lone high byte as invalid UTF-8")
	}
}

func TestSizedStringLengthLimit(t *testing.T) {
	big := make([]byte, 0x10000)
	for i := range big {
		big[i] = 'a'
	}
	if _, ok := SizedString.Validate(string(big)); ok {
		t.Fatal("expected string longer than 65535 bytes to be rejected")
	}
}

func TestVariableArrayRoundTrip(t *testing.T) {
	c := NewVariableArray(U16)
	roundTrip(t, c, []any{uint16(1), uint16(2), uint16(3)})
	roundTrip(t, c, []any{})
}

func TestFixedArrayRoundTrip(t *testing.T) {
	c := NewFixedArray(U8, 4)
	roundTrip(t, c, []any{uint8(1), uint8(2), uint8(3), uint8(4)})
}

func TestFixedArrayRejectsWrongLength(t *testing.T) {
	c := NewFixedArray(U8, 4)
	if _, ok := c.Validate([]any{uint8(1), uint8(2)}); ok {
		t.Fatal("expected wrong-length array to be rejected")
	}
}

func TestTLVLengthCodec(t *testing.T) {
	c := NewTLVLengthCodec(4)
	packed, err := c.Pack(5) // 5 payload bytes -> ceil((5+1)/4) = 2 quads
	if err != nil {
		t.Fatal(err)
	}
	if len(packed) != 1 || packed[0] != 2 {
		t.Fatalf("expected quad count 2, got %v", packed)
	}
	_, effective, err := c.Unpack(packed)
	if err != nil {
		t.Fatal(err)
	}
	if effective.(int64) != 2*4-1 {
		t.Fatalf("expected effective length %d, got %v", 2*4-1, effective)
	}
}

func TestTLVLengthRejectsZeroOrOne(t *testing.T) {
	c := NewTLVLengthCodec(4)
	for _, quads := range []byte{0, 1} {
		if _, _, err := c.Unpack([]byte{quads}); err == nil {
			t.Fatalf("expected quad count %d to be rejected", quads)
		}
	}
}

func TestTLVDataArrayRoundTrip(t *testing.T) {
	c := NewTLVDataArray()
	// 7 bytes encode to a quad count of ceil((7+1)/4) = 2, which decodes
	// back to an effective length of 2*4-1 = 7.
	payload := []any{uint8(1), uint8(2), uint8(3), uint8(4), uint8(5), uint8(6), uint8(7)}
	roundTrip(t, c, payload)
}

func TestEnumRequiresZeroMember(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected NewEnum to panic without a zero member")
		}
	}()
	NewEnum(U8, []EnumValue{{"ONE", 1}, {"TWO", 2}})
}

func TestEnumRoundTrip(t *testing.T) {
	e := NewEnum(U8, []EnumValue{{"NONE", 0}, {"LOW", 1}, {"HIGH", 2}})
	roundTrip(t, e, uint8(1))
	roundTrip(t, e, e.Default())
}

func TestEnumRejectsUnknownValue(t *testing.T) {
	e := NewEnum(U8, []EnumValue{{"NONE", 0}, {"LOW", 1}})
	if _, ok := e.Validate(uint8(99)); ok {
		t.Fatal("expected unknown enum value to be rejected")
	}
	if _, _, err := e.Unpack([]byte{99}); err == nil {
		t.Fatal("expected unpack of unknown enum value to fail")
	}
}

func TestEnumValidateByName(t *testing.T) {
	e := NewEnum(U8, []EnumValue{{"NONE", 0}, {"LOW", 1}})
	nv, ok := e.Validate("LOW")
	if !ok {
		t.Fatal("expected lookup by name to succeed")
	}
	if nv.(uint8) != 1 {
		t.Fatalf("expected LOW to resolve to 1, got %v", nv)
	}
}

func TestTruncatedUnpackFails(t *testing.T) {
	packed, _ := U32.Pack(uint32(12345))
	for k := 0; k < len(packed); k++ {
		if _, _, err := U32.Unpack(packed[:k]); err == nil {
			t.Fatalf("expected truncated unpack at %d bytes to fail", k)
		}
	}
}
