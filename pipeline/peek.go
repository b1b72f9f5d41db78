package pipeline

import "context"

// Peekable wraps an iterator with one value of lookahead.
type Peekable[T any] struct {
	source Iterator[T]
	head   T
	has    bool
	done   bool
	err    error
}

// NewPeekable wraps source.
func NewPeekable[T any](source Iterator[T]) *Peekable[T] {
	return &Peekable[T]{source: source}
}

// Peek returns the next value without consuming it. An error from the
// source ends the iterator and is reported again on every later call.
func (p *Peekable[T]) Peek(ctx context.Context) (T, bool, error) {
	if p.has {
		return p.head, true, nil
	}
	var zero T
	if p.done {
		return zero, false, p.err
	}
	val, ok, err := p.source.Next(ctx)
	if err != nil {
		p.done, p.err = true, err
		return zero, false, err
	}
	if !ok {
		p.done = true
		return zero, false, nil
	}
	p.head, p.has = val, true
	return val, true, nil
}

// Next returns and consumes the next value.
func (p *Peekable[T]) Next(ctx context.Context) (T, bool, error) {
	val, ok, err := p.Peek(ctx)
	if ok {
		var zero T
		p.head, p.has = zero, false
	}
	return val, ok, err
}

// Close closes the underlying iterator.
func (p *Peekable[T]) Close() error {
	return p.source.Close()
}
