// Package graph assembles compgraph pipelines without running them.
//
// A Graph is an immutable description: every builder method returns a new
// Graph and leaves its receiver untouched, so a Graph can be shared as the
// input of several branches. Nothing is read until Run is called and the
// returned iterator is pulled.
//
//	g := graph.FromIter("docs").
//		Map(operations.Split("text")).
//		Sort([]string{"text"}).
//		Reduce(operations.Count("count"), []string{"text"})
//
//	it := g.Run(ctx, graph.Sources{"docs": graph.Rows(rows...)})
//	defer it.Close()
package graph

import (
	"context"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/extsort"
	"github.com/kbukum/compgraph/logger"
	"github.com/kbukum/compgraph/observability"
	"github.com/kbukum/compgraph/operations"
	"github.com/kbukum/compgraph/pipeline"
	"github.com/kbukum/compgraph/row"
)

// Source produces a fresh row stream each time it is called.
type Source func() pipeline.Iterator[row.Row]

// Sources maps source names used by FromIter to their factories.
type Sources map[string]Source

// Rows returns a Source over a fixed slice of rows.
func Rows(rows ...row.Row) Source {
	return func() pipeline.Iterator[row.Row] {
		return pipeline.Slice(rows)
	}
}

// Graph is a deferred pipeline over named sources.
type Graph struct {
	name  string
	build func(Sources) *pipeline.Pipeline[row.Row]
}

// FromIter starts a graph reading the source registered under name. A run
// without that source fails with NOT_FOUND on the first pull.
func FromIter(name string) *Graph {
	return &Graph{
		name: name,
		build: func(s Sources) *pipeline.Pipeline[row.Row] {
			src, ok := s[name]
			if !ok {
				return pipeline.FromFunc(func(context.Context) pipeline.Iterator[row.Row] {
					return pipeline.Fail[row.Row](errors.SourceNotFound(name))
				})
			}
			return operations.Read(src)
		},
	}
}

// FromFile starts a graph reading path line by line through parser.
func FromFile(path string, parser operations.LineParser) *Graph {
	return &Graph{
		name: path,
		build: func(Sources) *pipeline.Pipeline[row.Row] {
			return operations.ReadFile(path, parser)
		},
	}
}

// Name returns the name of the source the graph starts from.
func (g *Graph) Name() string { return g.name }

func (g *Graph) then(stage func(*pipeline.Pipeline[row.Row], Sources) *pipeline.Pipeline[row.Row]) *Graph {
	return &Graph{
		name: g.name,
		build: func(s Sources) *pipeline.Pipeline[row.Row] {
			return stage(g.build(s), s)
		},
	}
}

// Map adds a per-row stage.
func (g *Graph) Map(m operations.Mapper) *Graph {
	return g.then(func(in *pipeline.Pipeline[row.Row], _ Sources) *pipeline.Pipeline[row.Row] {
		return operations.Map(in, m)
	})
}

// Reduce adds a per-group stage. The input must be sorted on keys.
func (g *Graph) Reduce(r operations.Reducer, keys []string) *Graph {
	return g.then(func(in *pipeline.Pipeline[row.Row], _ Sources) *pipeline.Pipeline[row.Row] {
		return operations.Reduce(in, r, keys)
	})
}

// Sort adds an external sort on keys.
func (g *Graph) Sort(keys []string, opts ...extsort.Option) *Graph {
	sorter := extsort.New(keys, opts...)
	return g.then(func(in *pipeline.Pipeline[row.Row], _ Sources) *pipeline.Pipeline[row.Row] {
		return sorter.Apply(in)
	})
}

// Join merges g, as the left side, with other on keys. Both must be sorted
// on keys.
func (g *Graph) Join(j operations.Joiner, other *Graph, keys []string) *Graph {
	return g.then(func(in *pipeline.Pipeline[row.Row], s Sources) *pipeline.Pipeline[row.Row] {
		return operations.Join(in, other.build(s), j, keys)
	})
}

// Run builds the pipeline against sources and returns its output stream.
// Every call starts from fresh source iterators. The caller must Close the
// returned iterator.
func (g *Graph) Run(ctx context.Context, sources Sources) pipeline.Iterator[row.Row] {
	runCtx, run := observability.StartRun(ctx, g.name, observability.Engine())
	logger.Get("graph").WithContext(runCtx).Debug("run started", logger.Fields("graph", g.name))

	ri := &runIter{run: run, runCtx: runCtx}
	counted := pipeline.Tap(g.build(sources), func(context.Context, row.Row) error {
		ri.rows++
		return nil
	})
	ri.source = counted.Iter(runCtx)
	return ri
}

// runIter ends the run when its output is exhausted, fails, or is closed.
type runIter struct {
	source pipeline.Iterator[row.Row]
	run    *observability.Run
	runCtx context.Context
	rows   int
	ended  bool

	// bound caches the caller context decorated with the run.
	caller context.Context
	bound  context.Context
}

func (it *runIter) Next(ctx context.Context) (row.Row, bool, error) {
	if ctx != it.caller {
		it.caller, it.bound = ctx, it.run.Bind(ctx)
	}
	r, ok, err := it.source.Next(it.bound)
	if err != nil || !ok {
		it.finish(err)
	}
	return r, ok, err
}

func (it *runIter) Close() error {
	err := it.source.Close()
	it.finish(nil)
	return err
}

func (it *runIter) finish(err error) {
	if it.ended {
		return
	}
	it.ended = true
	it.run.End(it.runCtx, it.rows, err)
	logger.Get("graph").WithContext(it.runCtx).Debug("run finished", logger.Fields(
		"graph", it.run.Name,
		logger.FieldRows, it.rows,
		logger.FieldDuration, it.run.Duration().Milliseconds(),
	))
}
