package extsort

import (
	"cmp"
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/logger"
	"github.com/kbukum/compgraph/observability"
	"github.com/kbukum/compgraph/pipeline"
	"github.com/kbukum/compgraph/row"
)

// DefaultChunkSize is the number of rows sorted in memory at a time.
const DefaultChunkSize = 100000

// Config controls memory use and spill location.
type Config struct {
	// ChunkSize is the number of rows held in memory per chunk.
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"`
	// TempDir is where spill directories are created. Empty means os.TempDir().
	TempDir string `mapstructure:"temp_dir" yaml:"temp_dir"`
}

// Option configures a Sorter.
type Option func(*Config)

// WithChunkSize sets the rows per chunk. Values below 1 keep the default.
func WithChunkSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.ChunkSize = n
		}
	}
}

// WithTempDir sets the parent directory for spill files.
func WithTempDir(dir string) Option {
	return func(c *Config) { c.TempDir = dir }
}

// Sorter orders row streams by a fixed list of key columns.
type Sorter struct {
	keys []string
	cfg  Config
	log  *logger.Logger
}

// New returns a Sorter on keys.
func New(keys []string, opts ...Option) *Sorter {
	cfg := Config{ChunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Sorter{keys: keys, cfg: cfg, log: logger.Get("extsort")}
}

// Keys returns the sort columns.
func (s *Sorter) Keys() []string { return s.keys }

// Sort returns source ordered by the sort keys. Nothing is read until the
// first call to Next, which consumes the whole input.
func (s *Sorter) Sort(source pipeline.Iterator[row.Row]) pipeline.Iterator[row.Row] {
	return &sortIter{s: s, source: source}
}

// Apply wraps in with a sort stage.
func (s *Sorter) Apply(in *pipeline.Pipeline[row.Row]) *pipeline.Pipeline[row.Row] {
	return pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[row.Row] {
		return s.Sort(in.Iter(ctx))
	})
}

// entry is a row with its sort key and input position.
type entry struct {
	key row.Key
	seq int64
	row row.Row
}

func compareEntries(a, b entry) int {
	if c := row.CompareKeys(a.key, b.key); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

type sortIter struct {
	s      *Sorter
	source pipeline.Iterator[row.Row]

	started      bool
	sourceClosed bool
	done         bool
	err          error

	// mem serves a single-chunk input.
	mem []entry
	pos int

	dir    string
	spills []string
	merger *merger
}

func (it *sortIter) Next(ctx context.Context) (row.Row, bool, error) {
	if it.done {
		return nil, false, it.err
	}
	if !it.started {
		it.started = true
		if err := it.prepare(ctx); err != nil {
			return nil, false, it.fail(err)
		}
	}

	if it.merger != nil {
		e, ok, err := it.merger.next()
		if err != nil {
			return nil, false, it.fail(err)
		}
		if !ok {
			it.release()
			return nil, false, nil
		}
		return e.row, true, nil
	}

	if it.pos >= len(it.mem) {
		it.release()
		return nil, false, nil
	}
	e := it.mem[it.pos]
	it.mem[it.pos] = entry{}
	it.pos++
	return e.row, true, nil
}

// prepare consumes the input, sorting it chunk by chunk.
func (it *sortIter) prepare(ctx context.Context) (err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanSortMerge,
		trace.WithAttributes(attribute.StringSlice(observability.AttrSortKeys, it.s.keys)))
	defer func() {
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		span.End()
	}()

	batches := pipeline.Batch(pipeline.From(it.source), it.s.cfg.ChunkSize).Iter(ctx)
	var (
		seq     int64
		chunks  int
		spilled int
	)
	for {
		batch, ok, err := batches.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		chunk := make([]entry, len(batch))
		for i, r := range batch {
			key, err := row.KeyOf(r, it.s.keys)
			if err != nil {
				return err
			}
			chunk[i] = entry{key: key, seq: seq, row: r}
			seq++
		}
		slices.SortFunc(chunk, compareEntries)
		chunks++

		if chunks == 1 {
			it.mem = chunk
			continue
		}
		if it.mem != nil {
			if err := it.spill(it.mem); err != nil {
				return err
			}
			spilled += len(it.mem)
			it.mem = nil
		}
		if err := it.spill(chunk); err != nil {
			return err
		}
		spilled += len(chunk)
	}
	it.closeSource()

	if len(it.spills) > 0 {
		m, err := newMerger(it.spills, it.s.keys)
		if err != nil {
			return err
		}
		it.merger = m
	}

	d := time.Since(start)
	span.SetAttributes(
		attribute.Int(observability.AttrChunks, chunks),
		attribute.Int64(observability.AttrRows, seq),
	)
	observability.Engine().RecordSort(ctx, chunks, spilled, d)
	it.s.log.WithContext(ctx).Debug("input sorted", logger.Fields(
		logger.FieldKeys, it.s.keys,
		logger.FieldRows, seq,
		logger.FieldChunks, chunks,
		"spilled_rows", spilled,
		logger.FieldDuration, d.Milliseconds(),
	))
	return nil
}

func (it *sortIter) spill(chunk []entry) error {
	if it.dir == "" {
		base := it.s.cfg.TempDir
		if base == "" {
			base = os.TempDir()
		}
		dir := filepath.Join(base, "compgraph-sort-"+uuid.NewString())
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.IO("create spill directory", dir, err)
		}
		it.dir = dir
	}
	path := filepath.Join(it.dir, chunkName(len(it.spills)))
	if err := writeChunk(path, chunk); err != nil {
		return err
	}
	it.spills = append(it.spills, path)
	it.s.log.Debug("chunk spilled", logger.Fields(logger.FieldPath, path, logger.FieldRows, len(chunk)))
	return nil
}

func (it *sortIter) closeSource() {
	if !it.sourceClosed {
		it.sourceClosed = true
		_ = it.source.Close()
	}
}

// fail releases everything and keeps err for every later Next.
func (it *sortIter) fail(err error) error {
	it.release()
	it.err = err
	return err
}

// release closes the input and every spill file and removes the spill
// directory. It is safe to call more than once.
func (it *sortIter) release() {
	it.done = true
	it.mem = nil
	it.closeSource()
	if it.merger != nil {
		it.merger.close()
		it.merger = nil
	}
	if it.dir != "" {
		if err := os.RemoveAll(it.dir); err != nil {
			it.s.log.Warn("spill cleanup failed", logger.ErrorFields("remove spill directory", err))
		} else {
			it.s.log.Debug("spill directory removed", logger.Fields(logger.FieldPath, it.dir))
		}
		it.dir = ""
	}
}

func (it *sortIter) Close() error {
	it.release()
	return nil
}
