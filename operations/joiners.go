package operations

import (
	"context"
	"slices"

	"github.com/kbukum/compgraph/pipeline"
	"github.com/kbukum/compgraph/row"
)

// JoinOption configures a joiner.
type JoinOption func(*joinConfig)

type joinConfig struct {
	leftSuffix  string
	rightSuffix string
}

// WithSuffixes sets the suffixes given to non-key columns present on both
// sides of a match. Defaults are "_1" and "_2".
func WithSuffixes(left, right string) JoinOption {
	return func(c *joinConfig) {
		c.leftSuffix = left
		c.rightSuffix = right
	}
}

func newJoinConfig(opts []JoinOption) joinConfig {
	cfg := joinConfig{leftSuffix: row.DefaultLeftSuffix, rightSuffix: row.DefaultRightSuffix}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// MergeJoiner joins two sorted streams in a single forward pass. Only the
// left rows of the key currently being matched are buffered.
type MergeJoiner struct {
	cfg       joinConfig
	keepLeft  bool
	keepRight bool
}

// InnerJoiner emits the merge of every left and right row pair with equal
// keys.
func InnerJoiner(opts ...JoinOption) *MergeJoiner {
	return &MergeJoiner{cfg: newJoinConfig(opts)}
}

// LeftJoiner is InnerJoiner plus every left row without a match, unchanged.
func LeftJoiner(opts ...JoinOption) *MergeJoiner {
	return &MergeJoiner{cfg: newJoinConfig(opts), keepLeft: true}
}

// RightJoiner is InnerJoiner plus every right row without a match, unchanged.
func RightJoiner(opts ...JoinOption) *MergeJoiner {
	return &MergeJoiner{cfg: newJoinConfig(opts), keepRight: true}
}

// Join implements Joiner.
func (j *MergeJoiner) Join(keys []string, left, right pipeline.Iterator[row.Row]) pipeline.Iterator[row.Row] {
	return &mergeJoinIter{
		j:     j,
		keys:  keys,
		left:  pipeline.NewPeekable(left),
		right: pipeline.NewPeekable(right),
	}
}

type mergeJoinIter struct {
	j     *MergeJoiner
	keys  []string
	left  *pipeline.Peekable[row.Row]
	right *pipeline.Peekable[row.Row]

	// run holds the left rows whose key is runKey while the matching right
	// rows are streamed.
	run    []row.Row
	runKey row.Key

	out []row.Row
	pos int
	err error
}

func (it *mergeJoinIter) Next(ctx context.Context) (row.Row, bool, error) {
	if it.err != nil {
		return nil, false, it.err
	}
	r, ok, err := it.next(ctx)
	if err != nil {
		it.err, it.out, it.run = err, nil, nil
	}
	return r, ok, err
}

func (it *mergeJoinIter) next(ctx context.Context) (row.Row, bool, error) {
	for {
		if it.pos < len(it.out) {
			r := it.out[it.pos]
			it.pos++
			return r, true, nil
		}
		it.out, it.pos = it.out[:0], 0

		if it.run != nil {
			r, key, ok, err := peekKey(ctx, it.right, it.keys)
			if err != nil {
				return nil, false, err
			}
			if !ok || row.CompareKeys(key, it.runKey) != 0 {
				it.run, it.runKey = nil, nil
				continue
			}
			_, _, _ = it.right.Next(ctx)
			for _, l := range it.run {
				it.out = append(it.out, row.Merge(l, r, it.keys, it.j.cfg.leftSuffix, it.j.cfg.rightSuffix))
			}
			continue
		}

		l, lk, lok, err := peekKey(ctx, it.left, it.keys)
		if err != nil {
			return nil, false, err
		}
		r, rk, rok, err := peekKey(ctx, it.right, it.keys)
		if err != nil {
			return nil, false, err
		}

		switch {
		case !lok && !rok:
			return nil, false, nil
		case !rok:
			if !it.j.keepLeft {
				return nil, false, nil
			}
			_, _, _ = it.left.Next(ctx)
			return row.Copy(l), true, nil
		case !lok:
			if !it.j.keepRight {
				return nil, false, nil
			}
			_, _, _ = it.right.Next(ctx)
			return row.Copy(r), true, nil
		}

		switch c := row.CompareKeys(lk, rk); {
		case c < 0:
			_, _, _ = it.left.Next(ctx)
			if it.j.keepLeft {
				return row.Copy(l), true, nil
			}
		case c > 0:
			_, _, _ = it.right.Next(ctx)
			if it.j.keepRight {
				return row.Copy(r), true, nil
			}
		default:
			if err := it.bufferRun(ctx, lk); err != nil {
				return nil, false, err
			}
		}
	}
}

// bufferRun moves every left row with key onto it.run.
func (it *mergeJoinIter) bufferRun(ctx context.Context, key row.Key) error {
	it.run, it.runKey = it.run[:0], key
	for {
		l, lk, ok, err := peekKey(ctx, it.left, it.keys)
		if err != nil {
			return err
		}
		if !ok || row.CompareKeys(lk, key) != 0 {
			return nil
		}
		_, _, _ = it.left.Next(ctx)
		it.run = append(it.run, l)
	}
}

func (it *mergeJoinIter) Close() error {
	lerr := it.left.Close()
	rerr := it.right.Close()
	if lerr != nil {
		return lerr
	}
	return rerr
}

func peekKey(ctx context.Context, p *pipeline.Peekable[row.Row], keys []string) (row.Row, row.Key, bool, error) {
	r, ok, err := p.Peek(ctx)
	if err != nil || !ok {
		return nil, nil, false, err
	}
	key, err := row.KeyOf(r, keys)
	if err != nil {
		return nil, nil, false, err
	}
	return r, key, true, nil
}

// MaterializedJoiner loads both inputs into memory, then emits for every
// key found on either side the merged cross product, or the unmatched rows
// unchanged. Keys come out in ascending order.
type MaterializedJoiner struct {
	cfg joinConfig
}

// OuterJoiner returns the full outer joiner.
func OuterJoiner(opts ...JoinOption) *MaterializedJoiner {
	return &MaterializedJoiner{cfg: newJoinConfig(opts)}
}

// Join implements Joiner.
func (j *MaterializedJoiner) Join(keys []string, left, right pipeline.Iterator[row.Row]) pipeline.Iterator[row.Row] {
	return &outerJoinIter{j: j, keys: keys, left: left, right: right}
}

type keyedRows struct {
	key  row.Key
	rows []row.Row
}

type outerJoinIter struct {
	j     *MaterializedJoiner
	keys  []string
	left  pipeline.Iterator[row.Row]
	right pipeline.Iterator[row.Row]

	loaded bool
	order  []row.Key
	lrows  map[string]*keyedRows
	rrows  map[string]*keyedRows
	next   int

	out []row.Row
	pos int
	err error
}

func (it *outerJoinIter) Next(ctx context.Context) (row.Row, bool, error) {
	if it.err != nil {
		return nil, false, it.err
	}
	if !it.loaded {
		if err := it.load(ctx); err != nil {
			it.err, it.lrows, it.rrows, it.order = err, nil, nil, nil
			return nil, false, err
		}
	}
	for {
		if it.pos < len(it.out) {
			r := it.out[it.pos]
			it.pos++
			return r, true, nil
		}
		if it.next >= len(it.order) {
			return nil, false, nil
		}
		id := row.KeyString(it.order[it.next])
		it.next++

		it.out, it.pos = it.out[:0], 0
		l, r := it.lrows[id], it.rrows[id]
		switch {
		case l == nil:
			for _, rr := range r.rows {
				it.out = append(it.out, row.Copy(rr))
			}
		case r == nil:
			for _, lr := range l.rows {
				it.out = append(it.out, row.Copy(lr))
			}
		default:
			for _, lr := range l.rows {
				for _, rr := range r.rows {
					it.out = append(it.out, row.Merge(lr, rr, it.keys, it.j.cfg.leftSuffix, it.j.cfg.rightSuffix))
				}
			}
		}
	}
}

func (it *outerJoinIter) load(ctx context.Context) error {
	it.loaded = true
	var err error
	if it.lrows, err = it.collect(ctx, it.left); err != nil {
		return err
	}
	if it.rrows, err = it.collect(ctx, it.right); err != nil {
		return err
	}
	for _, kr := range it.lrows {
		it.order = append(it.order, kr.key)
	}
	for id, kr := range it.rrows {
		if _, ok := it.lrows[id]; !ok {
			it.order = append(it.order, kr.key)
		}
	}
	slices.SortFunc(it.order, row.CompareKeys)
	return nil
}

func (it *outerJoinIter) collect(ctx context.Context, src pipeline.Iterator[row.Row]) (map[string]*keyedRows, error) {
	groups := make(map[string]*keyedRows)
	for {
		r, ok, err := src.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return groups, nil
		}
		key, err := row.KeyOf(r, it.keys)
		if err != nil {
			return nil, err
		}
		id := row.KeyString(key)
		kr, found := groups[id]
		if !found {
			kr = &keyedRows{key: key}
			groups[id] = kr
		}
		kr.rows = append(kr.rows, r)
	}
}

func (it *outerJoinIter) Close() error {
	lerr := it.left.Close()
	rerr := it.right.Close()
	if lerr != nil {
		return lerr
	}
	return rerr
}
