package transport

import (
	"net"
	"testing"
	"time"

	"rbridge/codec"
	"rbridge/wire"
)

func testRegistryAndSubProtocol() (*wire.Registry, *wire.SubProtocol) {
	reg := wire.NewRegistry()
	sp := wire.NewSubProtocol("TEST", 1, 1)
	sp.Add(wire.NewPacketType("Ping", wire.Field{Name: "id", Codec: codec.U16}))
	reg.Register(sp)
	return reg, sp
}

func TestLoopbackSendReceive(t *testing.T) {
	reg, sp := testRegistryAndSubProtocol()

	server, err := Listen("test", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("server listen: %v", err)
	}
	defer server.Close()

	client, err := Listen("test", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("client listen: %v", err)
	}
	defer client.Close()

	received := make(chan struct {
		cmd uint8
		msg *wire.Message
	}, 1)
	cancel := server.Subscribe(func(subProtocolID, sequence, cmd uint8, msg *wire.Message, addr *net.UDPAddr) bool {
		received <- struct {
			cmd uint8
			msg *wire.Message
		}{cmd, msg}
		return true
	})
	defer cancel()

	pt, _ := sp.PacketFor(1)
	m, err := pt.New(map[string]any{"id": uint16(99)})
	if err != nil {
		t.Fatal(err)
	}

	if err := client.Send(sp, 1, m, client.NextSequenceNumber(), server.LocalAddr()); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case got := <-received:
		if got.cmd != 1 {
			t.Fatalf("expected cmd 1, got %d", got.cmd)
		}
		id, _ := got.msg.Get("id")
		if id.(uint16) != 99 {
			t.Fatalf("expected id 99, got %v", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server to receive packet")
	}
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	reg, sp := testRegistryAndSubProtocol()

	server, err := Listen("test", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()
	client, err := Listen("test", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	calls := make(chan struct{}, 4)
	cancel := server.Subscribe(func(uint8, uint8, uint8, *wire.Message, *net.UDPAddr) bool {
		calls <- struct{}{}
		return true
	})
	cancel()

	pt, _ := sp.PacketFor(1)
	m, _ := pt.New(map[string]any{"id": uint16(1)})
	if err := client.Send(sp, 1, m, client.NextSequenceNumber(), server.LocalAddr()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-calls:
		t.Fatal("expected no delivery after cancel")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSequenceNumberWrapsModulo256(t *testing.T) {
	reg, _ := testRegistryAndSubProtocol()
	tr, err := Listen("test", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	var last uint8
	for i := 0; i < 300; i++ {
		last = tr.NextSequenceNumber()
	}
	// The counter starts at 0 and increments before use, so the 300th call
	// yields 300 mod 256 = 44.
	if last != 44 {
		t.Fatalf("expected the 300th sequence number to wrap to 44, got %d", last)
	}
}
