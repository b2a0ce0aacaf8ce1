package query

import (
	"net"
	"testing"
	"time"

	"rbridge/codec"
	"rbridge/transport"
	"rbridge/wire"
)

func testSetup(t *testing.T) (*wire.Registry, *wire.SubProtocol, *transport.Transport, *transport.Transport) {
	t.Helper()
	reg := wire.NewRegistry()
	sp := wire.NewSubProtocol("TEST", 1, 1)
	sp.Add(wire.NewPacketType("Ping", wire.Field{Name: "id", Codec: codec.U16}))
	sp.Add(wire.NewPacketType("Pong", wire.Field{Name: "id", Codec: codec.U16}))
	reg.Register(sp)

	server, err := transport.Listen("test", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { server.Close() })

	client, err := transport.Listen("test", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })

	return reg, sp, server, client
}

func TestQueryExecuteSuccess(t *testing.T) {
	_, sp, server, client := testSetup(t)

	pongType, _ := sp.PacketFor(2)
	cancel := server.Subscribe(func(_, sequence, cmd uint8, msg *wire.Message, addr *net.UDPAddr) bool {
		if cmd != 1 {
			return false
		}
		id, _ := msg.Get("id")
		reply, _ := pongType.New(map[string]any{"id": id})
		server.Send(sp, 2, reply, sequence, addr)
		return true
	})
	defer cancel()

	q := New(client, time.Second)
	pingType, _ := sp.PacketFor(1)
	m, _ := pingType.New(map[string]any{"id": uint16(7)})

	cmd, resp, err := q.Execute(sp, 1, m, server.LocalAddr(), "Ping")
	if err != nil {
		t.Fatal(err)
	}
	if cmd != 2 {
		t.Fatalf("expected response cmd 2, got %d", cmd)
	}
	id, _ := resp.Get("id")
	if id.(uint16) != 7 {
		t.Fatalf("expected echoed id 7, got %v", id)
	}
}

func TestQueryExecuteTimeout(t *testing.T) {
	_, sp, server, client := testSetup(t)

	q := New(client, 100*time.Millisecond)
	pingType, _ := sp.PacketFor(1)
	m, _ := pingType.New(map[string]any{"id": uint16(1)})

	_, _, err := q.Execute(sp, 1, m, server.LocalAddr(), "Ping")
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("expected *TimeoutError, got %T: %v", err, err)
	}
}

func TestQueryIgnoresRepliesFromOtherAddresses(t *testing.T) {
	reg, sp, server, client := testSetup(t)

	impostor, err := transport.Listen("test", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer impostor.Close()

	pongType, _ := sp.PacketFor(2)
	// An unsolicited reply from a third host must not satisfy the query,
	// which only listens to the address it actually sent the request to.
	reply, _ := pongType.New(map[string]any{"id": uint16(1)})
	if err := impostor.Send(sp, 2, reply, impostor.NextSequenceNumber(), client.LocalAddr()); err != nil {
		t.Fatal(err)
	}

	q := New(client, 150*time.Millisecond)
	pingType, _ := sp.PacketFor(1)
	m, _ := pingType.New(map[string]any{"id": uint16(1)})

	_, _, err = q.Execute(sp, 1, m, server.LocalAddr(), "Ping")
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("expected timeout since the only reply came from an unrelated address, got %v", err)
	}
}
