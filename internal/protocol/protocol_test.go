package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDeriveKey_UsesRideID(t *testing.T) {
	key := DeriveKey(VerbRideJoin, RidePayload{RideID: "r42"})
	if key != "ride:subscribe:r42" {
		t.Errorf("DeriveKey() = %q, want ride:subscribe:r42", key)
	}
}

func TestDeriveKey_PrefersRideOverDriver(t *testing.T) {
	payload := map[string]string{"driver_id": "d1", "ride_id": "r1"}
	key := DeriveKey(VerbLocation, payload)
	if key != "driver:location:r1" {
		t.Errorf("DeriveKey() = %q, want driver:location:r1", key)
	}
}

func TestDeriveKey_FallsBackToVerb(t *testing.T) {
	tests := []struct {
		name    string
		payload any
	}{
		{"nil payload", nil},
		{"no id fields", map[string]int{"count": 3}},
		{"non-string id", map[string]int{"ride_id": 7}},
		{"non-object payload", []int{1, 2, 3}},
	}

	for _, tt := range tests {
		if key := DeriveKey(VerbHeartbeat, tt.payload); key != string(VerbHeartbeat) {
			t.Errorf("%s: DeriveKey() = %q, want %q", tt.name, key, VerbHeartbeat)
		}
	}
}

func TestFrame_RoundTripThroughInbound(t *testing.T) {
	frame := Frame{
		Event: VerbRideJoin,
		Payload: RidePayload{
			RideID:   "r1",
			Envelope: NewEnvelope(),
		},
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var in InboundFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if in.Event != string(VerbRideJoin) {
		t.Errorf("Event = %q, want %q", in.Event, VerbRideJoin)
	}

	var payload RidePayload
	if err := json.Unmarshal(in.Payload, &payload); err != nil {
		t.Fatalf("payload Unmarshal() error = %v", err)
	}
	if payload.RideID != "r1" {
		t.Errorf("RideID = %q, want r1", payload.RideID)
	}
	if payload.MessageID == "" {
		t.Error("envelope message id missing")
	}
}

func TestNewEnvelope(t *testing.T) {
	a := NewEnvelope()
	b := NewEnvelope()

	if a.MessageID == "" || a.MessageID == b.MessageID {
		t.Error("message ids must be unique and non-empty")
	}
	if time.Since(a.SentAt) > time.Minute {
		t.Errorf("SentAt = %v, want roughly now", a.SentAt)
	}
}
