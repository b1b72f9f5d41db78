package operations

import (
	"context"

	"github.com/kbukum/compgraph/pipeline"
	"github.com/kbukum/compgraph/row"
)

// Mapper turns one row into zero or more rows.
type Mapper interface {
	Map(r row.Row) ([]row.Row, error)
}

// MapperFunc adapts a function to the Mapper interface.
type MapperFunc func(r row.Row) ([]row.Row, error)

// Map calls f(r).
func (f MapperFunc) Map(r row.Row) ([]row.Row, error) { return f(r) }

// Reducer aggregates one group of rows sharing the same key.
//
// group yields only the rows of the current group and may be abandoned
// early; the operator skips whatever the reducer did not consume.
type Reducer interface {
	Reduce(ctx context.Context, keys []string, group pipeline.Iterator[row.Row]) ([]row.Row, error)
}

// ReducerFunc adapts a function to the Reducer interface.
type ReducerFunc func(ctx context.Context, keys []string, group pipeline.Iterator[row.Row]) ([]row.Row, error)

// Reduce calls f(ctx, keys, group).
func (f ReducerFunc) Reduce(ctx context.Context, keys []string, group pipeline.Iterator[row.Row]) ([]row.Row, error) {
	return f(ctx, keys, group)
}

// Joiner merges two streams sorted on keys. The returned iterator owns both
// inputs and closes them when closed.
type Joiner interface {
	Join(keys []string, left, right pipeline.Iterator[row.Row]) pipeline.Iterator[row.Row]
}

// Read yields the rows of a fresh iterator from factory on every run.
func Read(factory func() pipeline.Iterator[row.Row]) *pipeline.Pipeline[row.Row] {
	return pipeline.FromFunc(func(_ context.Context) pipeline.Iterator[row.Row] {
		return factory()
	})
}

// Map applies m to every row, keeping input order.
func Map(in *pipeline.Pipeline[row.Row], m Mapper) *pipeline.Pipeline[row.Row] {
	return pipeline.FlatMap(in, func(_ context.Context, r row.Row) (pipeline.Iterator[row.Row], error) {
		out, err := m.Map(r)
		if err != nil {
			return nil, err
		}
		return pipeline.Slice(out), nil
	})
}

// Reduce calls r once per maximal run of rows with equal keys. in must be
// sorted on keys. An empty key list makes the whole stream a single group.
func Reduce(in *pipeline.Pipeline[row.Row], r Reducer, keys []string) *pipeline.Pipeline[row.Row] {
	return pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[row.Row] {
		return &reduceIter{
			source:  pipeline.NewPeekable(in.Iter(ctx)),
			reducer: r,
			keys:    keys,
		}
	})
}

// Join merges left and right, both sorted on keys, through j.
func Join(left, right *pipeline.Pipeline[row.Row], j Joiner, keys []string) *pipeline.Pipeline[row.Row] {
	return pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[row.Row] {
		return j.Join(keys, left.Iter(ctx), right.Iter(ctx))
	})
}

// reduceIter drives the reducer over one group at a time. The peekable
// source holds the first row of the next group between calls.
type reduceIter struct {
	source  *pipeline.Peekable[row.Row]
	reducer Reducer
	keys    []string

	out []row.Row
	pos int
	err error
}

func (it *reduceIter) Next(ctx context.Context) (row.Row, bool, error) {
	if it.err != nil {
		return nil, false, it.err
	}
	for {
		if it.pos < len(it.out) {
			r := it.out[it.pos]
			it.pos++
			return r, true, nil
		}
		it.out, it.pos = nil, 0

		head, ok, err := it.source.Peek(ctx)
		if err != nil {
			return nil, false, it.fail(err)
		}
		if !ok {
			return nil, false, nil
		}
		key, err := row.KeyOf(head, it.keys)
		if err != nil {
			return nil, false, it.fail(err)
		}

		group := &groupIter{source: it.source, keys: it.keys, key: key}
		out, err := it.reducer.Reduce(ctx, it.keys, group)
		if err != nil {
			return nil, false, it.fail(err)
		}
		if err := group.drain(ctx); err != nil {
			return nil, false, it.fail(err)
		}
		it.out = out
	}
}

// fail ends the operator; every later Next reports err again.
func (it *reduceIter) fail(err error) error {
	it.err, it.out, it.pos = err, nil, 0
	return err
}

func (it *reduceIter) Close() error { return it.source.Close() }

// groupIter yields rows from source while their key equals key.
type groupIter struct {
	source *pipeline.Peekable[row.Row]
	keys   []string
	key    row.Key
	done   bool
}

func (g *groupIter) Next(ctx context.Context) (row.Row, bool, error) {
	if g.done {
		return nil, false, nil
	}
	next, ok, err := g.source.Peek(ctx)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		g.done = true
		return nil, false, nil
	}
	key, err := row.KeyOf(next, g.keys)
	if err != nil {
		return nil, false, err
	}
	if row.CompareKeys(key, g.key) != 0 {
		g.done = true
		return nil, false, nil
	}
	return g.source.Next(ctx)
}

// Close only ends the group; the upstream belongs to the reduce operator.
func (g *groupIter) Close() error {
	g.done = true
	return nil
}

func (g *groupIter) drain(ctx context.Context) error {
	// A reducer may have closed the group early; the rest of it is still
	// upstream and is found again by key.
	g.done = false
	for {
		_, ok, err := g.Next(ctx)
		if err != nil || !ok {
			return err
		}
	}
}
