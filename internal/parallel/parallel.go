// Package parallel provides the chunked fan-out loops used by the stick engine.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool `yaml:"enabled"`        // Whether parallel execution is enabled.
	NumWorkers   int  `yaml:"num_workers"`    // Number of worker goroutines to use.
	MinChunkSize int  `yaml:"min_chunk_size"` // Minimum work items per goroutine.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Rows of sticks; smaller tensors stay sequential.
	}
}

// Sequential returns a config that never spawns goroutines.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

func (c Config) workers() int {
	if c.NumWorkers < 1 {
		return 1
	}
	return c.NumWorkers
}

// For executes f(i) for i in [0, n) and returns the error of the lowest
// failing index, the same error a sequential loop would return.
//
// Work is split into contiguous chunks of at least MinChunkSize items. Once
// an item fails, items above it are skipped; items below it still run so a
// lower failure can take its place.
func For(n int, f func(i int) error, cfg Config) error {
	if !cfg.Enabled || n <= cfg.MinChunkSize || cfg.workers() == 1 {
		for i := 0; i < n; i++ {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		first  error
		failAt atomic.Int64
	)
	failAt.Store(int64(n))
	g.SetLimit(cfg.workers())
	chunkSize := max((n+cfg.workers()-1)/cfg.workers(), cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		s, e := start, min(start+chunkSize, n)
		g.Go(func() error {
			for i := s; i < e; i++ {
				if int64(i) > failAt.Load() {
					return nil
				}
				if err := f(i); err != nil {
					mu.Lock()
					if int64(i) < failAt.Load() {
						failAt.Store(int64(i))
						first = err
					}
					mu.Unlock()
					return nil
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return first
}

// ForEach runs f for every item in [0, n) with at most NumWorkers in flight,
// stopping early when ctx is cancelled or an item fails.
func ForEach(parent context.Context, n int, f func(ctx context.Context, i int) error, cfg Config) error {
	g, ctx := errgroup.WithContext(parent)
	if cfg.Enabled {
		g.SetLimit(cfg.workers())
	} else {
		g.SetLimit(1)
	}

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return f(ctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return parent.Err()
}
