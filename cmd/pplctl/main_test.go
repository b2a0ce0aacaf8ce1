package main

import (
	"os"
	"path/filepath"
	"testing"

	"rbridge/ppl"
)

func TestReadDocumentParsesValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	body := `{"device":{"useDhcp":false,"ip":"10.0.0.5","netmask":"255.255.255.0","gateway":"10.0.0.1"},"networks":{"1":{"ssid":"lab"}}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	if doc.UID == 0 {
		t.Error("expected a non-zero fingerprint UID")
	}
	if doc.Storage != "PERSIST" {
		t.Errorf("Storage = %q, want PERSIST", doc.Storage)
	}
}

func TestReadDocumentRejectsMissingFile(t *testing.T) {
	if _, err := readDocument(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestReadDocumentRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := readDocument(path); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestPrintLogReportsAllOK(t *testing.T) {
	log := ppl.Log{Response: []string{"OK", "OK"}, Timestamp: []string{"a", "b"}, Message: []string{"", ""}}
	if !printLog(log) {
		t.Error("expected an all-OK log to report success")
	}
}

func TestPrintLogReportsFailureOnAnyError(t *testing.T) {
	log := ppl.Log{Response: []string{"OK", "ERROR"}, Timestamp: []string{"a", "b"}, Message: []string{"", "bad slot"}}
	if printLog(log) {
		t.Error("expected an ERROR row to report failure")
	}
}

func TestResolveAddr(t *testing.T) {
	addr, err := resolveAddr("127.0.0.1", 34500)
	if err != nil {
		t.Fatalf("resolveAddr: %v", err)
	}
	if addr.Port != 34500 {
		t.Errorf("Port = %d, want 34500", addr.Port)
	}
}

func TestOutputPathValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	if !outputPathValid(path, false) {
		t.Error("a nonexistent path should always be valid")
	}

	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	if outputPathValid(path, false) {
		t.Error("an existing path without force_write should be invalid")
	}
	if !outputPathValid(path, true) {
		t.Error("an existing path with force_write should be valid")
	}
}

func TestWriteLogFileRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	log := ppl.Log{Response: []string{"OK"}, Timestamp: []string{"12:00:00"}, Message: []string{""}}
	if err := writeLogFile(path, log); err != nil {
		t.Fatalf("writeLogFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) == 0 {
		t.Error("expected non-empty output file")
	}
}
