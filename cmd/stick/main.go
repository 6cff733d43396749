// Package main provides the stick CLI: descriptor and offset inspection,
// number-format conversion, and .stk container packing and dumping.
package main

import (
	"fmt"
	"os"

	"github.com/born-ml/stick/internal/status"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stick: %v (%s)\n", err, status.KindOf(err))
		os.Exit(1)
	}
}
