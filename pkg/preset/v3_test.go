package preset

import (
	"bytes"
	"testing"
)

func TestV3RoundTrip(t *testing.T) {
	var classID [32]byte
	copy(classID[:], "com.example.synth.classid......")

	state := V3State{
		ClassID:    classID,
		Component:  []byte{1, 2, 3, 4, 5},
		Controller: []byte{9, 9, 9},
	}
	data := EncodeV3(state)

	decoded, err := DecodeV3(data, classID)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ClassID != classID {
		t.Error("class id mismatch after round trip")
	}
	if !bytes.Equal(decoded.Component, state.Component) {
		t.Errorf("component: got %v want %v", decoded.Component, state.Component)
	}
	if !bytes.Equal(decoded.Controller, state.Controller) {
		t.Errorf("controller: got %v want %v", decoded.Controller, state.Controller)
	}
}

func TestV3RoundTripComponentOnly(t *testing.T) {
	var classID [32]byte
	copy(classID[:], "only-component")

	state := V3State{ClassID: classID, Component: []byte("comp-state")}
	data := EncodeV3(state)

	decoded, err := DecodeV3(data, classID)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.Component, state.Component) {
		t.Errorf("component: got %v want %v", decoded.Component, state.Component)
	}
	if decoded.Controller != nil {
		t.Errorf("expected no controller blob, got %v", decoded.Controller)
	}
}

func TestDecodeV3RejectsClassIDMismatch(t *testing.T) {
	var classID, other [32]byte
	copy(classID[:], "aaaa")
	copy(other[:], "bbbb")

	data := EncodeV3(V3State{ClassID: classID, Component: []byte{1}})
	if _, err := DecodeV3(data, other); err == nil {
		t.Error("expected error on class id mismatch")
	}
}

func TestDecodeV3RejectsBadMagic(t *testing.T) {
	var classID [32]byte
	data := EncodeV3(V3State{ClassID: classID, Component: []byte{1}})
	copy(data[0:4], "Nope")
	var zero [32]byte
	if _, err := DecodeV3(data, zero); err == nil {
		t.Error("expected error on bad magic")
	}
}
