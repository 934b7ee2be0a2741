package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rivermist/vsthost/pkg/preset"
)

// jsonProgram is the JSON-friendly mirror of preset.Program: Chunk is
// base64 rather than raw bytes so the output is a plain text file.
type jsonProgram struct {
	PluginID      uint32    `json:"pluginId"`
	PluginVersion uint32    `json:"pluginVersion"`
	Name          string    `json:"name"`
	IsChunk       bool      `json:"isChunk"`
	Params        []float32 `json:"params,omitempty"`
	Chunk         string    `json:"chunk,omitempty"`
}

type jsonBank struct {
	PluginID       uint32        `json:"pluginId"`
	PluginVersion  uint32        `json:"pluginVersion"`
	CurrentProgram int32         `json:"currentProgram"`
	IsChunk        bool          `json:"isChunk"`
	Programs       []jsonProgram `json:"programs,omitempty"`
	Chunk          string        `json:"chunk,omitempty"`
}

type jsonV3 struct {
	ClassID    string `json:"classId"`
	Component  string `json:"component"`
	Controller string `json:"controller,omitempty"`
}

func toJSONProgram(p preset.Program) jsonProgram {
	return jsonProgram{
		PluginID: p.PluginID, PluginVersion: p.PluginVersion, Name: p.Name,
		IsChunk: p.IsChunk, Params: p.Params, Chunk: encodeChunk(p.Chunk),
	}
}

func fromJSONProgram(p jsonProgram) (preset.Program, error) {
	chunk, err := decodeChunk(p.Chunk)
	if err != nil {
		return preset.Program{}, err
	}
	return preset.Program{
		PluginID: p.PluginID, PluginVersion: p.PluginVersion, Name: p.Name,
		IsChunk: p.IsChunk, Params: p.Params, Chunk: chunk,
	}, nil
}

func encodeChunk(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

func decodeChunk(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

func newDumpCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Decode a preset file and print it as JSON",
		Long:  "Decode an FXP program, FXB bank, or VST3 chunk-list preset and print its decoded form as JSON.\nThe format is auto-detected from the file's magic unless --kind overrides it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			detected := kind
			if detected == "" {
				detected = detectKind(data)
			}
			out, err := dumpAs(detected, data)
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(out)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Force format: program|bank|v3 (default: auto-detect)")
	return cmd
}

func detectKind(data []byte) string {
	if len(data) >= 4 && string(data[:4]) == "VST3" {
		return "v3"
	}
	if len(data) >= 8 {
		sub := string(data[8:min(12, len(data))])
		switch sub {
		case "FxBk", "FBCh":
			return "bank"
		}
	}
	return "program"
}

func dumpAs(kind string, data []byte) (any, error) {
	switch kind {
	case "program":
		p, err := preset.DecodeProgram(data)
		if err != nil {
			return nil, err
		}
		return toJSONProgram(*p), nil
	case "bank":
		b, err := preset.DecodeBank(data)
		if err != nil {
			return nil, err
		}
		out := jsonBank{
			PluginID: b.PluginID, PluginVersion: b.PluginVersion,
			CurrentProgram: b.CurrentProgram, IsChunk: b.IsChunk, Chunk: encodeChunk(b.Chunk),
		}
		for _, p := range b.Programs {
			out.Programs = append(out.Programs, toJSONProgram(p))
		}
		return out, nil
	case "v3":
		var classID [32]byte
		v3, err := preset.DecodeV3(data, classID)
		if err != nil {
			return nil, err
		}
		return jsonV3{
			ClassID:    hex.EncodeToString(v3.ClassID[:]),
			Component:  encodeChunk(v3.Component),
			Controller: encodeChunk(v3.Controller),
		}, nil
	default:
		return nil, fmt.Errorf("presetctl: unknown kind %q", kind)
	}
}
