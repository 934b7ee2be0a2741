package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rivermist/vsthost/pkg/preset"
)

func TestDetectKind(t *testing.T) {
	v3, err := json.Marshal(jsonV3{ClassID: "00"})
	if err != nil {
		t.Fatal(err)
	}
	_ = v3

	prog, err := preset.EncodeProgram(preset.Program{PluginID: 1, Name: "p", Params: []float32{0.5}})
	if err != nil {
		t.Fatal(err)
	}
	if got := detectKind(prog); got != "program" {
		t.Errorf("expected program, got %s", got)
	}

	bank, err := preset.EncodeBank(preset.Bank{
		PluginID: 1,
		Programs: []preset.Program{{PluginID: 1, Name: "p", Params: []float32{0.5}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := detectKind(bank); got != "bank" {
		t.Errorf("expected bank, got %s", got)
	}

	v3Bytes := preset.EncodeV3(preset.V3State{Component: []byte("abc")})
	if got := detectKind(v3Bytes); got != "v3" {
		t.Errorf("expected v3, got %s", got)
	}
}

func TestDumpEncodeProgramRoundTrip(t *testing.T) {
	orig := preset.Program{PluginID: 7, PluginVersion: 2, Name: "gain", Params: []float32{0.25, 0.75}}
	data, err := preset.EncodeProgram(orig)
	if err != nil {
		t.Fatal(err)
	}

	dumped, err := dumpAs("program", data)
	if err != nil {
		t.Fatal(err)
	}
	jp, ok := dumped.(jsonProgram)
	if !ok {
		t.Fatalf("expected jsonProgram, got %T", dumped)
	}
	raw, err := json.Marshal(jp)
	if err != nil {
		t.Fatal(err)
	}

	reencoded, err := encodeAs("program", raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(reencoded, data) {
		t.Errorf("round trip mismatch: got %d bytes, want %d bytes", len(reencoded), len(data))
	}
}

func TestDumpEncodeV3RoundTrip(t *testing.T) {
	data := preset.EncodeV3(preset.V3State{Component: []byte("state"), Controller: []byte("ctrl")})

	dumped, err := dumpAs("v3", data)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(dumped)
	if err != nil {
		t.Fatal(err)
	}
	reencoded, err := encodeAs("v3", raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(reencoded, data) {
		t.Errorf("v3 round trip mismatch: got %d bytes, want %d bytes", len(reencoded), len(data))
	}
}

func TestBuildRootCmdRegistersSubcommands(t *testing.T) {
	root := buildRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	if !names["dump"] || !names["encode"] {
		t.Fatalf("expected dump and encode subcommands, got %v", names)
	}
}
