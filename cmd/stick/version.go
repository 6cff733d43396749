package main

import (
	"fmt"
	"runtime"

	"github.com/born-ml/stick/internal/serialization"
	"github.com/spf13/cobra"
)

func makeVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the stick version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stick %s (container format v%d, %s %s/%s)\n",
				serialization.Version, serialization.FormatVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
