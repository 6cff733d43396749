package main

import (
	"io"
	"strconv"

	"github.com/born-ml/stick/internal/format"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/tensor"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func makeLimitsCommand() *cobra.Command {
	var transformed string
	cmd := &cobra.Command{
		Use:   "limits --type DLFLOAT16|INT8|INT32",
		Short: "Print the value range a transformed type can hold for each target type.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dt, err := tensor.ParseDataType(transformed)
			if err != nil {
				return err
			}
			return printLimits(cmd.OutOrStdout(), dt)
		},
	}
	cmd.Flags().StringVar(&transformed, "type", "DLFLOAT16", "transformed data type")
	return cmd
}

func printLimits(w io.Writer, transformed tensor.DataType) error {
	targets := []tensor.DataType{tensor.FP32, tensor.FP16, tensor.BFloat16, tensor.INT8, tensor.INT32}
	table := newTable(w, "target", "min", "max")
	rows := 0
	for _, target := range targets {
		lo, err := format.MinLimit(transformed, target)
		if errors.Is(err, status.ErrInvalidType) {
			continue
		} else if err != nil {
			return err
		}
		hi, err := format.MaxLimit(transformed, target)
		if err != nil {
			return err
		}
		table.Append([]string{target.String(), strconv.FormatFloat(lo, 'f', -1, 64), strconv.FormatFloat(hi, 'f', -1, 64)})
		rows++
	}
	if rows == 0 {
		return status.Newf(status.ErrInvalidType, "%s has no limits", transformed)
	}
	table.Render()
	return nil
}
