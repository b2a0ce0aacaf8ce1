package main

import (
	"testing"

	"rbridge/erci"
)

func TestSucceededHonorsCommandResultFlag(t *testing.T) {
	if !succeeded(&erci.CommandResult{Success: true}) {
		t.Error("expected a successful CommandResult to report success")
	}
	if succeeded(&erci.CommandResult{Success: false}) {
		t.Error("expected a failed CommandResult to report failure")
	}
}

func TestSucceededDefaultsTrueForQueryResponses(t *testing.T) {
	if !succeeded(&erci.StateResponse{}) {
		t.Error("state responses carry no Success field and should default true")
	}
}

func TestParseUint8(t *testing.T) {
	v, err := parseUint8("ring_id", "200")
	if err != nil {
		t.Fatalf("parseUint8: %v", err)
	}
	if v != 200 {
		t.Errorf("v = %d, want 200", v)
	}

	if _, err := parseUint8("ring_id", "300"); err == nil {
		t.Error("expected an error for a value outside uint8 range")
	}
	if _, err := parseUint8("ring_id", "nope"); err == nil {
		t.Error("expected an error for a non-numeric value")
	}
}

func TestRunConfigValidatesArgCount(t *testing.T) {
	if _, err := runConfig(nil, nil, []string{"1", "2"}); err == nil {
		t.Error("expected an error when config is missing an argument")
	}
}

func TestRunAntennaValidatesArgCount(t *testing.T) {
	if _, err := runAntenna(nil, nil, nil); err == nil {
		t.Error("expected an error when antenna is missing its argument")
	}
}

func TestRunPassportQueryRejectsBadMAC(t *testing.T) {
	if _, err := runPassportQuery(nil, nil, []string{"not-a-mac", "SERIAL123"}); err == nil {
		t.Error("expected an error for a malformed MAC address")
	}
}
