package pipeline

import (
	"context"
	"errors"
)

// derive builds a pipeline whose iterators wrap fresh iterators of p.
func derive[I, O any](p *Pipeline[I], wrap func(Iterator[I]) Iterator[O]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			return wrap(p.create(ctx))
		},
	}
}

// Map transforms each value using fn.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return derive(p, func(src Iterator[I]) Iterator[O] {
		return &stage[I, O]{source: src, step: func(ctx context.Context, v I) (O, bool, error) {
			out, err := fn(ctx, v)
			return out, err == nil, err
		}}
	})
}

// FlatMap transforms each value into an iterator and flattens the results.
// Each inner iterator is closed once drained. A nil inner iterator counts
// as empty.
func FlatMap[I, O any](p *Pipeline[I], fn func(context.Context, I) (Iterator[O], error)) *Pipeline[O] {
	return derive(p, func(src Iterator[I]) Iterator[O] {
		return &flatMapIter[I, O]{source: src, fn: fn}
	})
}

// Filter keeps only values that satisfy the predicate.
func Filter[T any](p *Pipeline[T], fn func(T) bool) *Pipeline[T] {
	return derive(p, func(src Iterator[T]) Iterator[T] {
		return &stage[T, T]{source: src, step: func(_ context.Context, v T) (T, bool, error) {
			return v, fn(v), nil
		}}
	})
}

// Tap calls fn for each value and passes the value through unchanged.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return derive(p, func(src Iterator[T]) Iterator[T] {
		return &stage[T, T]{source: src, step: func(ctx context.Context, v T) (T, bool, error) {
			err := fn(ctx, v)
			return v, err == nil, err
		}}
	})
}

// stage emits step's output for every source value that step keeps. The
// first error or the end of the source finishes the stage: later calls
// repeat the same result without touching the source again.
type stage[I, O any] struct {
	source Iterator[I]
	step   func(context.Context, I) (O, bool, error)
	ended  bool
	err    error
}

func (s *stage[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	for !s.ended {
		in, ok, err := s.source.Next(ctx)
		if err != nil || !ok {
			s.ended, s.err = true, err
			break
		}
		out, keep, err := s.step(ctx, in)
		if err != nil {
			s.ended, s.err = true, err
			break
		}
		if keep {
			return out, true, nil
		}
	}
	return zero, false, s.err
}

func (s *stage[I, O]) Close() error { return s.source.Close() }

type flatMapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (Iterator[O], error)
	inner  Iterator[O]
	ended  bool
	err    error
}

func (it *flatMapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	for !it.ended {
		if it.inner == nil {
			in, ok, err := it.source.Next(ctx)
			if err != nil || !ok {
				it.ended, it.err = true, err
				break
			}
			if it.inner, err = it.fn(ctx, in); err != nil {
				it.ended, it.err = true, err
			}
			continue
		}
		out, ok, err := it.inner.Next(ctx)
		if ok && err == nil {
			return out, true, nil
		}
		if cerr := it.closeInner(); err == nil {
			err = cerr
		}
		if err != nil {
			it.ended, it.err = true, err
		}
	}
	return zero, false, it.err
}

func (it *flatMapIter[I, O]) closeInner() error {
	if it.inner == nil {
		return nil
	}
	err := it.inner.Close()
	it.inner = nil
	return err
}

func (it *flatMapIter[I, O]) Close() error {
	return errors.Join(it.closeInner(), it.source.Close())
}
