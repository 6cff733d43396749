package main

import (
	"fmt"
	"io"

	"github.com/born-ml/stick/internal/tensor"
	"github.com/born-ml/stick/internal/ztensor"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func makeDescribeCommand(root *rootOptions) *cobra.Command {
	var flags tensorFlags
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the transformed descriptor and buffer size of a logical tensor.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			zt, err := flags.build(cfg)
			if err != nil {
				return err
			}
			describe(cmd.OutOrStdout(), zt)
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func describe(w io.Writer, zt *ztensor.Tensor) {
	pre, tfrmd := zt.PreTransformed(), zt.Transformed()
	table := newTable(w, "property", "value")
	table.Append([]string{"pre-transformed", pre.String()})
	table.Append([]string{"transformed", tfrmd.String()})
	if c := zt.Concat(); c.Kind != tensor.ConcatNone {
		table.Append([]string{"concatenation", c.String()})
	}
	if p, ok := zt.Quantization(); ok {
		table.Append([]string{"quantization", p.String()})
	}
	size := uint64(zt.BufferSize())
	table.Append([]string{"buffer", fmt.Sprintf("%s (%d bytes, %d pages)", humanize.IBytes(size), size, tfrmd.Geometry().Pages())})
	for _, m := range []struct {
		name string
		mode tensor.ElementsMode
	}{
		{"elements (all)", tensor.ElementsAll},
		{"elements (single gate)", tensor.ElementsConcatSingle},
		{"elements (all gates)", tensor.ElementsConcatWithoutPad},
	} {
		table.Append([]string{m.name, humanize.Comma(int64(tensor.NumElements(pre, tfrmd, m.mode)))})
	}
	table.Render()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}
