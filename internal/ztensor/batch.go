package ztensor

import (
	"context"

	"github.com/born-ml/stick/internal/config"
	"github.com/born-ml/stick/internal/parallel"
	"github.com/born-ml/stick/internal/status"
	"github.com/cockroachdb/errors"
)

// Job is one stickify request of a batch.
type Job[T Element] struct {
	Tensor   *Tensor
	Gates    [][]T
	Saturate bool
}

// TransformBatch stickifies independent tensors concurrently, at most
// cfg.Parallel.NumWorkers at a time, and returns the first error. Tensors
// whose job failed or never ran stay untransformed.
func TransformBatch[T Element](ctx context.Context, cfg *config.Config, jobs []Job[T]) error {
	if cfg == nil {
		cfg = config.Default()
	}
	for i, j := range jobs {
		for k := range jobs[:i] {
			if jobs[k].Tensor == j.Tensor {
				return status.Newf(status.ErrInvalidArgument, "jobs %d and %d stickify the same tensor", k, i)
			}
		}
	}
	return parallel.ForEach(ctx, len(jobs), func(_ context.Context, i int) error {
		j := jobs[i]
		var err error
		if j.Saturate {
			err = StickifySaturate(j.Tensor, j.Gates...)
		} else {
			err = Stickify(j.Tensor, j.Gates...)
		}
		return errors.Wrapf(err, "job %d", i)
	}, cfg.Parallel)
}
