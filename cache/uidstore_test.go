package cache

import (
	"context"
	"testing"
	"time"
)

func TestKeyFormat(t *testing.T) {
	got := key("10.0.0.5")
	want := "device:10.0.0.5:config_uid"
	if got != want {
		t.Fatalf("key(%q) = %q, want %q", "10.0.0.5", got, want)
	}
}

// A nil *UIDStore must behave like a disconnected one at every call site.
func TestNilStoreIsAlwaysValid(t *testing.T) {
	var s *UIDStore

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect on nil store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close on nil store: %v", err)
	}

	ctx := context.Background()
	if err := s.Record(ctx, "10.0.0.5", 42); err != nil {
		t.Fatalf("Record on nil store: %v", err)
	}
	uid, ok, err := s.Lookup(ctx, "10.0.0.5")
	if err != nil || ok || uid != 0 {
		t.Fatalf("Lookup on nil store = (%d, %v, %v), want (0, false, nil)", uid, ok, err)
	}
}

// A constructed-but-never-connected store must also no-op rather than
// panic on a nil client.
func TestUnconnectedStoreIsNoOp(t *testing.T) {
	s := New("127.0.0.1:0", time.Minute)

	ctx := context.Background()
	if err := s.Record(ctx, "10.0.0.5", 42); err != nil {
		t.Fatalf("Record on unconnected store: %v", err)
	}
	uid, ok, err := s.Lookup(ctx, "10.0.0.5")
	if err != nil || ok || uid != 0 {
		t.Fatalf("Lookup on unconnected store = (%d, %v, %v), want (0, false, nil)", uid, ok, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close on unconnected store: %v", err)
	}
}

// Connect to an address nothing is listening on must return an error
// rather than silently leaving the store half-initialized.
func TestConnectFailureReportsError(t *testing.T) {
	s := New("127.0.0.1:1", time.Minute)
	if err := s.Connect(); err == nil {
		t.Fatal("expected an error connecting to a closed port")
	}
}
