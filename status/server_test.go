package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rbridge/ppl"
)

type fakeCounter struct{ n int }

func (f fakeCounter) SubscriberCount() int { return f.n }

type fakeLastRun struct{ log ppl.Log }

func (f fakeLastRun) Log() ppl.Log { return f.log }

func TestHealthzReportsOK(t *testing.T) {
	s := New("127.0.0.1:0", nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %q, want ok", body["status"])
	}
}

func TestSubscribersReportsZeroWhenNoTransport(t *testing.T) {
	s := New("127.0.0.1:0", nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/transport/subscribers", nil)
	s.router().ServeHTTP(rec, req)

	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["subscribers"] != 0 {
		t.Fatalf("subscribers = %d, want 0", body["subscribers"])
	}
}

func TestSubscribersReflectsAttachedTransport(t *testing.T) {
	s := New("127.0.0.1:0", fakeCounter{n: 3}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/transport/subscribers", nil)
	s.router().ServeHTTP(rec, req)

	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["subscribers"] != 3 {
		t.Fatalf("subscribers = %d, want 3", body["subscribers"])
	}
}

func TestLastRunReflectsAttachedClient(t *testing.T) {
	log := ppl.Log{Response: []string{"OK"}, Timestamp: []string{"12:00:00"}, Message: []string{""}}
	s := New("127.0.0.1:0", nil, fakeLastRun{log: log})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ppl/last-run", nil)
	s.router().ServeHTTP(rec, req)

	var body ppl.Log
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Response) != 1 || body.Response[0] != "OK" {
		t.Fatalf("last-run body = %+v", body)
	}
}
