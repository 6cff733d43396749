package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/born-ml/stick/internal/serialization"
	"github.com/born-ml/stick/internal/tensor"
	"github.com/born-ml/stick/internal/ztensor"
	"github.com/spf13/cobra"
)

type dumpOptions struct {
	hex    bool
	all    bool
	values bool
}

func makeDumpCommand(root *rootOptions) *cobra.Command {
	opts := dumpOptions{}
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the tensors of a .stk container stick by stick.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			r, err := serialization.Open(args[0], cfg, serialization.ReaderOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()
			return dumpContainer(cmd.OutOrStdout(), r, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.hex, "hex", false, "print raw cell encodings")
	cmd.Flags().BoolVar(&opts.all, "all", false, "include sticks holding only zeros")
	cmd.Flags().BoolVar(&opts.values, "values", false, "also print the unstickified logical values")
	return cmd
}

func dumpContainer(w io.Writer, r *serialization.Reader, opts dumpOptions) error {
	h := r.Header()
	fmt.Fprintf(w, "stk v%d written by %s at %s, %d tensors\n", h.FormatVersion, h.StickVersion, h.CreatedAt.Format("2006-01-02 15:04:05"), len(h.Tensors))
	meta := r.Metadata()
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		fmt.Fprintf(w, "  %s=%s\n", k, meta[k])
	}

	mode := ztensor.DumpFloat
	if opts.hex {
		mode = ztensor.DumpHex
	}
	for _, name := range r.TensorNames() {
		zt, err := r.LoadTensor(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "== %s ==\n", name)
		if err := ztensor.Dump(w, zt, mode, opts.all); err != nil {
			return err
		}
		if opts.values && hasValues(zt) {
			values := make([]float32, zt.PreTransformed().NumElements())
			if err := ztensor.Unstickify(zt, values); err != nil {
				return err
			}
			if err := ztensor.DumpValues(w, zt.PreTransformed(), values); err != nil {
				return err
			}
		}
	}
	return nil
}

// hasValues reports whether the logical values of zt can be printed as
// float32.
func hasValues(zt *ztensor.Tensor) bool {
	if !zt.IsTransformed() || zt.Transformed().Gates() > 1 {
		return false
	}
	_, quantized := zt.Quantization()
	return quantized || zt.PreTransformed().DType() == tensor.FP32
}
