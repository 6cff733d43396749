package main

import (
	"fmt"

	"github.com/born-ml/stick/internal/status"
	"github.com/spf13/cobra"
)

func makeOffsetCommand(root *rootOptions) *cobra.Command {
	var flags tensorFlags
	var index intsValue
	cmd := &cobra.Command{
		Use:   "offset --index i4,i3,i2,i1",
		Short: "Print where an element of the transformed dims lives in the buffer.",
		Long: `Print where an element of the transformed dims lives in the buffer.

The index addresses the transformed (padded) dims, outermost first, so
padding cells can be located too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			zt, err := flags.build(cfg)
			if err != nil {
				return err
			}
			if len(index) != 4 {
				return status.Newf(status.ErrInvalidArgument, "--index needs 4 values, got %d", len(index))
			}
			g := zt.Transformed().Geometry()
			if !g.Contains(index[0], index[1], index[2], index[3]) {
				return status.Newf(status.ErrInvalidShape, "index %v outside %v", []int(index), g.Dims)
			}
			off := g.Offset(index[0], index[1], index[2], index[3])
			page, stick, cell := g.Location(off)
			fmt.Fprintf(cmd.OutOrStdout(), "offset=%d page=%d stick=%d cell=%d\n", off, page, stick, cell)
			return nil
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().Var(&index, "index", "element index in the transformed dims")
	return cmd
}
