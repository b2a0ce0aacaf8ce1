package ppl

import (
	"net"
	"testing"
	"time"

	"rbridge/query"
	"rbridge/transport"
	"rbridge/wire"
)

func TestClientSendCommandSuccess(t *testing.T) {
	reg := NewRegistry()
	discovery, _ := reg.Lookup(DiscoveryID)
	getCmd, _ := discovery.CommandFor("GetNodeState")
	stateCmd, _ := discovery.CommandFor("NodeState")

	server, err := transport.Listen("ppl-sim", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	cancel := server.Subscribe(func(subID, _, cmd uint8, msg *wire.Message, addr *net.UDPAddr) bool {
		if cmd != getCmd {
			return false
		}
		nodeState, _ := discovery.PacketFor(stateCmd)
		reply, _ := nodeState.New(map[string]any{"State": "IDLE", "Uptime": uint32(42)})
		server.Send(discovery, stateCmd, reply, server.NextSequenceNumber(), addr)
		return true
	})
	defer cancel()

	clientTransport, err := transport.Listen("ppl-client", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer clientTransport.Close()

	client := NewClient(clientTransport, 500*time.Millisecond)
	getNodeState, _ := discovery.PacketFor(getCmd)
	req := getNodeState.Default()

	cmd, resp, err := client.SendCommand(discovery, getCmd, req, server.LocalAddr(), "GetNodeState")
	if err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}
	if cmd != stateCmd {
		t.Fatalf("expected response cmd %d (NodeState), got %d", stateCmd, cmd)
	}
	uptime, _ := resp.Get("Uptime")
	if uptime.(uint32) != 42 {
		t.Fatalf("expected uptime 42, got %v", uptime)
	}
}

func TestClientSendCommandGenericError(t *testing.T) {
	reg := NewRegistry()
	discovery, _ := reg.Lookup(DiscoveryID)
	getCmd, _ := discovery.CommandFor("GetNodeState")

	server, err := transport.Listen("ppl-sim", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	cancel := server.Subscribe(func(subID, _, cmd uint8, msg *wire.Message, addr *net.UDPAddr) bool {
		errType, _ := discovery.PacketFor(1)
		reply, _ := errType.New(map[string]any{"ErrorMsg": "node busy"})
		server.Send(discovery, 1, reply, server.NextSequenceNumber(), addr)
		return true
	})
	defer cancel()

	clientTransport, err := transport.Listen("ppl-client", reg, "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer clientTransport.Close()

	client := NewClient(clientTransport, 500*time.Millisecond)
	getNodeState, _ := discovery.PacketFor(getCmd)
	req := getNodeState.Default()

	_, _, err = client.SendCommand(discovery, getCmd, req, server.LocalAddr(), "GetNodeState")
	if err == nil {
		t.Fatal("expected GenericError to surface as an error")
	}
	respErr, ok := err.(*query.ResponseError)
	if !ok {
		t.Fatalf("expected *query.ResponseError, got %T: %v", err, err)
	}
	if respErr.Message != "node busy" {
		t.Fatalf("expected message %q, got %q", "node busy", respErr.Message)
	}
}
