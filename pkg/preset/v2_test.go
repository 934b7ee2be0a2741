package preset

import (
	"bytes"
	"testing"
)

func TestProgramRoundTripParams(t *testing.T) {
	p := Program{
		PluginID:      0x53796e31, // "Syn1"
		PluginVersion: 1,
		Name:          "Init ",
		Params:        []float32{0.1, 0.2, 0.3, 0.4},
	}
	data, err := EncodeProgram(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Name != p.Name {
		t.Errorf("name: got %q want %q", decoded.Name, p.Name)
	}
	if len(decoded.Params) != len(p.Params) {
		t.Fatalf("param count: got %d want %d", len(decoded.Params), len(p.Params))
	}
	for i := range p.Params {
		if decoded.Params[i] != p.Params[i] {
			t.Errorf("param %d: got %v want %v", i, decoded.Params[i], p.Params[i])
		}
	}

	reencoded, err := EncodeProgram(*decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(data, reencoded) {
		t.Error("encode(decode(b)) != b for parameter-form program")
	}
}

func TestProgramRoundTripChunk(t *testing.T) {
	p := Program{
		PluginID:      1,
		PluginVersion: 2,
		Name:          "Chunked",
		IsChunk:       true,
		Chunk:         []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01},
	}
	data, err := EncodeProgram(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.IsChunk {
		t.Fatal("expected chunk-form program")
	}
	if !bytes.Equal(decoded.Chunk, p.Chunk) {
		t.Errorf("chunk: got %v want %v", decoded.Chunk, p.Chunk)
	}
}

func TestDecodeProgramRejectsBadMagic(t *testing.T) {
	data, _ := EncodeProgram(Program{Params: []float32{0.5}})
	copy(data[0:4], "Nope")
	if _, err := DecodeProgram(data); err == nil {
		t.Error("expected error on bad magic")
	}
}

func TestDecodeProgramRejectsOversizedDeclaration(t *testing.T) {
	data, _ := EncodeProgram(Program{Params: []float32{0.5}})
	data = data[:len(data)-4] // truncate body but leave byteSize field stale
	if _, err := DecodeProgram(data); err == nil {
		t.Error("expected error when declared byte-size exceeds supplied data")
	}
}

func TestDecodeProgramRejectsMismatchedParamCount(t *testing.T) {
	data, _ := EncodeProgram(Program{Params: []float32{0.1, 0.2}})
	// numParams is the big-endian int32 at offset 24; lie about the count
	// without changing the body.
	data[27] = 3
	if _, err := DecodeProgram(data); err == nil {
		t.Error("expected error when declared param count * 4 != remaining body")
	}
}

func TestDecodeProgramTooSmall(t *testing.T) {
	if _, err := DecodeProgram([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for undersized program data")
	}
}

func TestBankRoundTripParams(t *testing.T) {
	b := Bank{
		PluginID:       42,
		PluginVersion:  1,
		CurrentProgram: 2,
		Programs: []Program{
			{Name: "p0", Params: []float32{0.1}},
			{Name: "p1", Params: []float32{0.2}},
			{Name: "p2", Params: []float32{0.3}},
		},
	}
	data, err := EncodeBank(b)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeBank(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.CurrentProgram != b.CurrentProgram {
		t.Errorf("current program: got %d want %d", decoded.CurrentProgram, b.CurrentProgram)
	}
	if len(decoded.Programs) != len(b.Programs) {
		t.Fatalf("program count: got %d want %d", len(decoded.Programs), len(b.Programs))
	}
	for i, p := range b.Programs {
		if decoded.Programs[i].Name != p.Name {
			t.Errorf("program %d name: got %q want %q", i, decoded.Programs[i].Name, p.Name)
		}
		if decoded.Programs[i].Params[0] != p.Params[0] {
			t.Errorf("program %d param 0: got %v want %v", i, decoded.Programs[i].Params[0], p.Params[0])
		}
	}
}

func TestBankRoundTripChunk(t *testing.T) {
	b := Bank{PluginID: 7, IsChunk: true, Chunk: []byte("opaque-bank-blob")}
	data, err := EncodeBank(b)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeBank(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.Chunk, b.Chunk) {
		t.Errorf("chunk: got %v want %v", decoded.Chunk, b.Chunk)
	}
}

func TestDecodeBankTooSmall(t *testing.T) {
	if _, err := DecodeBank(make([]byte, 10)); err == nil {
		t.Error("expected error for undersized bank data")
	}
}
