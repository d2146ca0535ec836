package models

import (
	"strings"
	"testing"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOK     bool
		wantStatus EnvelopeStatus
	}{
		{"success envelope", `{"status":"success","message":"done"}`, true, StatusSuccess},
		{"error envelope", `{"status":"error","message":"nope"}`, true, StatusError},
		{"plain text", "just a reply", false, ""},
		{"json without status", `{"message":"hi"}`, false, ""},
		{"json array", `[1,2,3]`, false, ""},
		{"unknown status", `{"status":"partial"}`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ok := ParseEnvelope(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseEnvelope() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && env.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", env.Status, tt.wantStatus)
			}
		})
	}
}

func TestEnvelopeConstructors(t *testing.T) {
	t.Run("success round trip", func(t *testing.T) {
		s := SuccessEnvelope("Registration Successful", map[string]any{"player_id": "JS1"})
		env, ok := ParseEnvelope(s)
		if !ok {
			t.Fatalf("ParseEnvelope(%q) not an envelope", s)
		}
		if env.Status != StatusSuccess {
			t.Errorf("Status = %q, want success", env.Status)
		}
		if env.Message != "Registration Successful" {
			t.Errorf("Message = %q", env.Message)
		}
		data, ok := env.Data.(map[string]any)
		if !ok || data["player_id"] != "JS1" {
			t.Errorf("Data = %#v, want player_id JS1", env.Data)
		}
	})

	t.Run("error round trip", func(t *testing.T) {
		s := ErrorEnvelope("Player JS9 not found")
		env, ok := ParseEnvelope(s)
		if !ok || env.Status != StatusError {
			t.Fatalf("ParseEnvelope(%q) = %+v, %v", s, env, ok)
		}
		if env.Message != "Player JS9 not found" {
			t.Errorf("Message = %q", env.Message)
		}
	})

	t.Run("unmarshalable data degrades", func(t *testing.T) {
		s := SuccessEnvelope("x", map[string]any{"ch": make(chan int)})
		if !strings.Contains(s, `"status":"error"`) {
			t.Errorf("SuccessEnvelope with bad data = %q, want degraded error envelope", s)
		}
	})
}

func TestAttendanceID(t *testing.T) {
	got := AttendanceID("KAI", "M1", "JS1")
	if got != "KAI_M1_JS1" {
		t.Errorf("AttendanceID = %q, want %q", got, "KAI_M1_JS1")
	}
}
