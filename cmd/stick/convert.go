package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/born-ml/stick/internal/format"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/tensor"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/x448/float16"
)

func makeConvertCommand() *cobra.Command {
	var from string
	var saturate bool
	cmd := &cobra.Command{
		Use:   "convert --from fp32|fp16|bf16 [--saturate] values...",
		Short: "Convert values to DLFLOAT16 and back.",
		Long: `Convert values to DLFLOAT16 and back.

Each value is first rounded to the --from type, then converted to
DLFLOAT16. Values that fail to convert are reported with their error kind;
the remaining values are still converted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := tensor.ParseDataType(from)
			if err != nil {
				return err
			}
			mode := format.Strict
			if saturate {
				mode = format.Saturate
			}
			return convert(cmd.OutOrStdout(), dt, mode, args)
		},
	}
	cmd.Flags().StringVar(&from, "from", "fp32", "source type (fp32, fp16, bf16)")
	cmd.Flags().BoolVar(&saturate, "saturate", false, "clip out-of-range values instead of failing")
	return cmd
}

func convert(w io.Writer, from tensor.DataType, mode format.Mode, args []string) error {
	table := newTable(w, "input", strings.ToLower(from.String()), "dlfloat16", "bits", "back", "status")
	for _, arg := range args {
		x, err := strconv.ParseFloat(arg, 32)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return status.Newf(status.ErrInvalidArgument, "bad value %q", arg)
		}
		v := float32(x)
		var row []string
		switch from {
		case tensor.FP32:
			row = convertRow(v, v, mode)
		case tensor.FP16:
			h := float16.Fromfloat32(v)
			row = convertRow(h, h.Float32(), mode)
		case tensor.BFloat16:
			b := format.BFloat16FromFloat32(v)
			row = convertRow(b, b.Float32(), mode)
		default:
			return status.Newf(status.ErrInvalidType, "cannot convert from %s", from)
		}
		table.Append(append([]string{arg}, row...))
	}
	table.Render()
	return nil
}

func convertRow[T format.Wide](v T, src float32, mode format.Mode) []string {
	d, err := format.ToNative(v, mode)
	row := []string{formatFloat(src), cellString(d), fmt.Sprintf("0x%04x", d.Bits()), "-", "ok"}
	if err != nil {
		row[4] = status.KindOf(err)
		return row
	}
	if back, err := format.FromNative[float32](d); err == nil {
		row[3] = formatFloat(back)
	} else {
		row[4] = status.KindOf(err)
	}
	return row
}

func cellString(d format.DLFloat16) string {
	if d.IsNaN() {
		return "NINF"
	}
	return d.String()
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
