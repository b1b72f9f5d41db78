package pipeline

import (
	"context"
)

// Batch groups consecutive values into slices of size values; the last slice
// may be shorter. size <= 0 defaults to 1. Each emitted slice is freshly
// allocated and owned by the consumer.
func Batch[T any](p *Pipeline[T], size int) *Pipeline[[]T] {
	return &Pipeline[[]T]{
		create: func(ctx context.Context) Iterator[[]T] {
			return &batchIter[T]{source: p.create(ctx), size: max(size, 1)}
		},
	}
}

type batchIter[T any] struct {
	source Iterator[T]
	size   int
	done   bool
	err    error
}

// Next returns a partial batch before the error that cut it short; the
// error is then reported on this and every later call.
func (it *batchIter[T]) Next(ctx context.Context) (result []T, ok bool, err error) {
	if it.done {
		return nil, false, it.err
	}

	var batch []T
	for len(batch) < it.size {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			it.done, it.err = true, err
			if len(batch) > 0 {
				return batch, true, nil
			}
			return nil, false, err
		}
		if !ok {
			it.done = true
			break
		}
		batch = append(batch, val)
	}
	if len(batch) == 0 {
		return nil, false, nil
	}
	return batch, true, nil
}

func (it *batchIter[T]) Close() error { return it.source.Close() }
