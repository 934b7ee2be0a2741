package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rivermist/vsthost/pkg/preset"
)

func newEncodeCmd() *cobra.Command {
	var kind, out string
	cmd := &cobra.Command{
		Use:   "encode <file.json>",
		Short: "Re-encode a presetctl dump's JSON back into binary preset bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "" {
				return fmt.Errorf("presetctl: --kind is required (program|bank|v3)")
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			data, err := encodeAs(kind, raw)
			if err != nil {
				return err
			}
			if out == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Format to encode: program|bank|v3")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func encodeAs(kind string, raw []byte) ([]byte, error) {
	switch kind {
	case "program":
		var jp jsonProgram
		if err := json.Unmarshal(raw, &jp); err != nil {
			return nil, fmt.Errorf("parse program json: %w", err)
		}
		p, err := fromJSONProgram(jp)
		if err != nil {
			return nil, err
		}
		return preset.EncodeProgram(p)
	case "bank":
		var jb jsonBank
		if err := json.Unmarshal(raw, &jb); err != nil {
			return nil, fmt.Errorf("parse bank json: %w", err)
		}
		chunk, err := decodeChunk(jb.Chunk)
		if err != nil {
			return nil, err
		}
		b := preset.Bank{
			PluginID: jb.PluginID, PluginVersion: jb.PluginVersion,
			CurrentProgram: jb.CurrentProgram, IsChunk: jb.IsChunk, Chunk: chunk,
		}
		for _, jp := range jb.Programs {
			p, err := fromJSONProgram(jp)
			if err != nil {
				return nil, err
			}
			b.Programs = append(b.Programs, p)
		}
		return preset.EncodeBank(b)
	case "v3":
		var jv jsonV3
		if err := json.Unmarshal(raw, &jv); err != nil {
			return nil, fmt.Errorf("parse v3 json: %w", err)
		}
		classID, err := hex.DecodeString(jv.ClassID)
		if err != nil {
			return nil, fmt.Errorf("decode classId: %w", err)
		}
		component, err := decodeChunk(jv.Component)
		if err != nil {
			return nil, err
		}
		controller, err := decodeChunk(jv.Controller)
		if err != nil {
			return nil, err
		}
		var state preset.V3State
		copy(state.ClassID[:], classID)
		state.Component = component
		state.Controller = controller
		return preset.EncodeV3(state), nil
	default:
		return nil, fmt.Errorf("presetctl: unknown kind %q", kind)
	}
}
