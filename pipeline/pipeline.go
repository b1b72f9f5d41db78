package pipeline

import "context"

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator and its sources.
	Close() error
}

// Pipeline represents a lazy, pull-based data pipeline.
// Every call to Iter builds a fresh chain of iterators.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// Runnable is a fully-configured pipeline ready to execute.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run executes the pipeline until completion, error or context cancellation.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// --- Constructors ---

// From creates a pipeline from an existing Iterator. The iterator is
// single-pass, so the pipeline can be iterated only once.
func From[T any](iter Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(_ context.Context) Iterator[T] {
			return iter
		},
	}
}

// FromSlice creates a pipeline from a slice of values.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(_ context.Context) Iterator[T] {
			return Slice(items)
		},
	}
}

// FromFunc creates a pipeline from a factory that produces an Iterator.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{create: fn}
}

// Iter returns a fresh Iterator for this pipeline. The caller must Close it.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.create(ctx)
}

// --- Terminals ---

// Drain creates a Runnable that pulls all values and sends each to sink.
func Drain[T any](p *Pipeline[T], sink func(context.Context, T) error) *Runnable {
	return &Runnable{
		run: func(ctx context.Context) error {
			iter := p.create(ctx)
			defer iter.Close()
			for {
				val, ok, err := iter.Next(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := sink(ctx, val); err != nil {
					return err
				}
			}
		},
	}
}

// Collect runs the pipeline and returns all values as a slice.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	return CollectIter(ctx, p.create(ctx))
}

// CollectIter pulls every value from iter and closes it.
func CollectIter[T any](ctx context.Context, iter Iterator[T]) ([]T, error) {
	defer iter.Close()
	var result []T
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, nil
		}
		result = append(result, val)
	}
}

// ForEach pulls all values and calls fn for each. Convenience wrapper around Drain.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	return Drain(p, fn).Run(ctx)
}

// --- Basic iterators ---

// Slice returns an iterator over items.
func Slice[T any](items []T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

// Empty returns an exhausted iterator.
func Empty[T any]() Iterator[T] {
	return &sliceIter[T]{}
}

// Fail returns an iterator whose first Next reports err.
func Fail[T any](err error) Iterator[T] {
	return &errIter[T]{err: err}
}

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if it.index >= len(it.items) {
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type errIter[T any] struct {
	err error
}

func (it *errIter[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	return zero, false, it.err
}

func (it *errIter[T]) Close() error { return nil }
