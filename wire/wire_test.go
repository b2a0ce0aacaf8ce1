package wire

import (
	"errors"
	"testing"

	"rbridge/codec"
)

func testPacketType() *PacketType {
	return NewPacketType("Ping",
		Field{Name: "id", Codec: codec.U16},
		Field{Name: "payload", Codec: codec.SizedString},
	)
}

func TestPacketTypeDefaults(t *testing.T) {
	pt := testPacketType()
	m := pt.Default()
	id, _ := m.Get("id")
	if id.(uint16) != 0 {
		t.Fatalf("expected default id 0, got %v", id)
	}
	payload, _ := m.Get("payload")
	if payload.(string) != "" {
		t.Fatalf("expected default payload \"\", got %q", payload)
	}
}

func TestPacketTypeNewRejectsSuperfluousField(t *testing.T) {
	pt := testPacketType()
	if _, err := pt.New(map[string]any{"nope": 1}); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestPacketTypeNewRejectsInvalidValue(t *testing.T) {
	pt := testPacketType()
	if _, err := pt.New(map[string]any{"id": "not a number"}); err == nil {
		t.Fatal("expected error for invalid field value")
	}
}

func TestPacketTypePackUnpackRoundTrip(t *testing.T) {
	pt := testPacketType()
	m, err := pt.New(map[string]any{"id": uint16(7), "payload": "hello"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := pt.Pack(m)
	if err != nil {
		t.Fatal(err)
	}
	n, decoded, err := pt.Unpack(b)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(b) {
		t.Fatalf("expected to consume %d bytes, consumed %d", len(b), n)
	}
	id, _ := decoded.Get("id")
	if id.(uint16) != 7 {
		t.Fatalf("expected id 7, got %v", id)
	}
	payload, _ := decoded.Get("payload")
	if payload.(string) != "hello" {
		t.Fatalf("expected payload hello, got %q", payload)
	}
}

func testSubProtocol() *SubProtocol {
	sp := NewSubProtocol("TEST", 9, 1)
	sp.Add(testPacketType())
	sp.Add(NewPacketType("Pong", Field{Name: "id", Codec: codec.U16}))
	return sp
}

func TestSubProtocolCommandsAreSequential(t *testing.T) {
	sp := testSubProtocol()
	cmd, ok := sp.CommandFor("Ping")
	if !ok || cmd != 1 {
		t.Fatalf("expected Ping at command 1, got %d ok=%v", cmd, ok)
	}
	cmd, ok = sp.CommandFor("Pong")
	if !ok || cmd != 2 {
		t.Fatalf("expected Pong at command 2, got %d ok=%v", cmd, ok)
	}
}

func TestSubProtocolPackUnpack(t *testing.T) {
	sp := testSubProtocol()
	pt, _ := sp.PacketFor(1)
	m, err := pt.New(map[string]any{"id": uint16(3), "payload": "hi"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := sp.Pack(1, m)
	if err != nil {
		t.Fatal(err)
	}
	cmd, decoded, err := sp.Unpack(b)
	if err != nil {
		t.Fatal(err)
	}
	if cmd != 1 {
		t.Fatalf("expected cmd 1, got %d", cmd)
	}
	id, _ := decoded.Get("id")
	if id.(uint16) != 3 {
		t.Fatalf("expected id 3, got %v", id)
	}
}

func TestSubProtocolUnpackRejectsSuperfluousBytes(t *testing.T) {
	sp := testSubProtocol()
	pt, _ := sp.PacketFor(2)
	m, _ := pt.New(map[string]any{"id": uint16(1)})
	b, _ := sp.Pack(2, m)
	b = append(b, 0xFF)
	if _, _, err := sp.Unpack(b); err == nil {
		t.Fatal("expected error for superfluous trailing byte")
	}
}

func TestSubProtocolUnpackRejectsUnknownCommand(t *testing.T) {
	sp := testSubProtocol()
	if _, _, err := sp.Unpack([]byte{99}); err == nil {
		t.Fatal("expected error for unknown command byte")
	}
}

func TestRegistryRejectsDuplicateID(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic registering a duplicate subprotocol id")
		}
	}()
	reg := NewRegistry()
	reg.Register(NewSubProtocol("A", 1, 1))
	reg.Register(NewSubProtocol("B", 1, 1))
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	reg := NewRegistry()
	sp := testSubProtocol()
	reg.Register(sp)

	pt, _ := sp.PacketFor(1)
	m, _ := pt.New(map[string]any{"id": uint16(42), "payload": "ok"})
	framed, err := SerializeMessage(sp, 1, m, 5)
	if err != nil {
		t.Fatal(err)
	}

	seq, subID, cmd, decoded, err := DeserializeMessage(reg, framed)
	if err != nil {
		t.Fatal(err)
	}
	if seq != 5 || subID != sp.ID || cmd != 1 {
		t.Fatalf("unexpected header fields: seq=%d subID=%d cmd=%d", seq, subID, cmd)
	}
	id, _ := decoded.Get("id")
	if id.(uint16) != 42 {
		t.Fatalf("expected id 42, got %v", id)
	}
}

func TestDeserializeTooSmallPacket(t *testing.T) {
	reg := NewRegistry()
	reg.Register(testSubProtocol())
	if _, _, _, _, err := DeserializeMessage(reg, []byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for too-small packet")
	}
}

func TestDeserializeUnregisteredSubprotocol(t *testing.T) {
	reg := NewRegistry()
	if _, _, _, _, err := DeserializeMessage(reg, make([]byte, HeaderSize+1)); err == nil {
		t.Fatal("expected error for unregistered subprotocol")
	}
}

func TestDeserializeVersionMismatch(t *testing.T) {
	reg := NewRegistry()
	sp := testSubProtocol()
	reg.Register(sp)
	pt, _ := sp.PacketFor(2)
	m, _ := pt.New(map[string]any{"id": uint16(1)})
	framed, err := SerializeMessage(sp, 2, m, 0)
	if err != nil {
		t.Fatal(err)
	}
	framed[4] = 0xFF // corrupt the version's high byte
	_, _, _, _, err = DeserializeMessage(reg, framed)
	var verr *VersionError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *VersionError, got %v (%T)", err, err)
	}
}

func TestDeserializeSuperfluousBytes(t *testing.T) {
	reg := NewRegistry()
	sp := testSubProtocol()
	reg.Register(sp)
	pt, _ := sp.PacketFor(2)
	m, _ := pt.New(map[string]any{"id": uint16(1)})
	framed, err := SerializeMessage(sp, 2, m, 0)
	if err != nil {
		t.Fatal(err)
	}
	framed = append(framed, 0x00)
	if _, _, _, _, err := DeserializeMessage(reg, framed); err == nil {
		t.Fatal("expected error for trailing bytes beyond the declared length")
	}
}

func TestSerializeRejectsOversizePacket(t *testing.T) {
	sp := NewSubProtocol("BIG", 10, 1)
	pt := NewPacketType("Blob", Field{Name: "data", Codec: codec.NewFixedArray(codec.U8, PacketSizeLimit+10)})
	sp.Add(pt)
	data := make([]any, PacketSizeLimit+10)
	for i := range data {
		data[i] = uint8(0)
	}
	m, err := pt.New(map[string]any{"data": data})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SerializeMessage(sp, 1, m, 0); err == nil {
		t.Fatal("expected error for packet exceeding PacketSizeLimit")
	}
}

func TestTLVRecordRoundTrip(t *testing.T) {
	r := TLVRecord{Component: 3, ValueID: 0x0102, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}}
	b, err := PackTLVRecord(r)
	if err != nil {
		t.Fatal(err)
	}
	n, decoded, err := UnpackTLVRecord(b)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(b) {
		t.Fatalf("expected to consume %d bytes, consumed %d", len(b), n)
	}
	if decoded.Component != 3 || decoded.ValueID != 0x0102 {
		t.Fatalf("unexpected decoded header: %+v", decoded)
	}
	if string(decoded.Data) != string(r.Data) {
		t.Fatalf("expected data %x, got %x", r.Data, decoded.Data)
	}
}

func TestTLVRecordEmptyData(t *testing.T) {
	// Component and valueId alone are 3 bytes, which encode to a quad count
	// of ceil((3+1)/4) = 1. A quad count of 1 is rejected on decode, so a
	// record without data packs but cannot be unpacked.
	r := TLVRecord{Component: 1, ValueID: 1}
	b, err := PackTLVRecord(r)
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 1 {
		t.Fatalf("expected quad count 1, got %d", b[0])
	}
	if _, _, err := UnpackTLVRecord(b); err == nil {
		t.Fatal("expected a record with empty data to be rejected on unpack")
	}
}
