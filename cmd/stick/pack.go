package main

import (
	"fmt"
	"strconv"

	"github.com/born-ml/stick/internal/serialization"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/ztensor"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type packOptions struct {
	name     string
	pattern  string
	start    float32
	step     float32
	saturate bool
	compress bool
}

// values fills n elements of gate g following the pattern.
func (o *packOptions) values(n, g int) ([]float32, error) {
	out := make([]float32, n)
	switch o.pattern {
	case "const":
		for i := range out {
			out[i] = o.start
		}
	case "ramp":
		for i := range out {
			out[i] = o.start + o.step*float32(g*n+i)
		}
	default:
		return nil, status.Newf(status.ErrInvalidArgument, "unknown pattern %q, want ramp or const", o.pattern)
	}
	return out, nil
}

func makePackCommand(root *rootOptions) *cobra.Command {
	var flags tensorFlags
	opts := packOptions{}
	cmd := &cobra.Command{
		Use:   "pack <file>",
		Short: "Stickify a generated tensor and write it to a .stk container.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			zt, err := flags.build(cfg)
			if err != nil {
				return err
			}

			n := int(zt.PreTransformed().NumElements())
			gates := make([][]float32, zt.Transformed().Gates())
			for g := range gates {
				if gates[g], err = opts.values(n, g); err != nil {
					return err
				}
			}
			if opts.saturate {
				err = ztensor.StickifySaturate(zt, gates...)
			} else {
				err = ztensor.Stickify(zt, gates...)
			}
			if err != nil {
				return err
			}

			w := serialization.NewWriter(serialization.WriterOptions{
				Compress: opts.compress,
				Metadata: map[string]string{
					"pattern": opts.pattern,
					"start":   strconv.FormatFloat(float64(opts.start), 'g', -1, 32),
					"step":    strconv.FormatFloat(float64(opts.step), 'g', -1, 32),
				},
			})
			if err := w.Add(opts.name, zt); err != nil {
				return err
			}
			if err := w.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %s (%s)\n", args[0], zt.Transformed(), humanize.IBytes(uint64(zt.BufferSize())))
			return nil
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&opts.name, "name", "tensor", "tensor name inside the container")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "ramp", "fill pattern (ramp, const)")
	cmd.Flags().Float32Var(&opts.start, "start", 0, "first value (or the constant)")
	cmd.Flags().Float32Var(&opts.step, "step", 1, "ramp increment")
	cmd.Flags().BoolVar(&opts.saturate, "saturate", false, "clip out-of-range values instead of failing")
	cmd.Flags().BoolVar(&opts.compress, "compress", false, "zstd-compress the data section")
	return cmd
}
