package ppl

import "testing"

func TestSubnetEntryCodecRoundTrip(t *testing.T) {
	entry := SubnetEntry{SubnetAddress: 7, Channel: 3, TxPower: 12.5}

	packed, err := SubnetEntryCodec.Pack(entry)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if len(packed) != 6 {
		t.Fatalf("packed length = %d, want 6", len(packed))
	}

	n, v, err := SubnetEntryCodec.Unpack(packed)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if n != 6 {
		t.Errorf("Unpack consumed %d bytes, want 6", n)
	}
	got, ok := v.(SubnetEntry)
	if !ok {
		t.Fatalf("Unpack returned %T, want SubnetEntry", v)
	}
	if got != entry {
		t.Errorf("round-tripped entry = %+v, want %+v", got, entry)
	}
}

func TestSubnetEntryCodecUnpackRejectsShortInput(t *testing.T) {
	if _, _, err := SubnetEntryCodec.Unpack([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error unpacking fewer than 6 bytes")
	}
}

func TestSubnetEntryCodecValidateRejectsWrongType(t *testing.T) {
	if _, ok := SubnetEntryCodec.Validate("not a subnet entry"); ok {
		t.Fatal("expected Validate to reject a non-SubnetEntry value")
	}
}
