package extsort

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/pipeline"
	"github.com/kbukum/compgraph/row"
)

func makeRows(n int) []row.Row {
	rows := make([]row.Row, n)
	for i := range rows {
		// A few repeated keys of mixed numeric kinds, in scrambled order.
		var k any = (i * 7) % 5
		if i%3 == 0 {
			k = float64((i * 7) % 5)
		}
		rows[i] = row.Row{"k": k, "s": fmt.Sprintf("w%d", (i*13)%4), "pos": i}
	}
	return rows
}

func sortAll(t *testing.T, rows []row.Row, keys []string, opts ...Option) []row.Row {
	t.Helper()
	s := New(keys, opts...)
	got, err := pipeline.CollectIter(context.Background(), s.Sort(pipeline.Slice(rows)))
	if err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	return got
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func TestSorter_OrderedStablePermutation(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		chunkSize int
	}{
		{"zero chunks", 0, 4},
		{"one chunk", 3, 4},
		{"exactly one full chunk", 4, 4},
		{"many chunks", 37, 4},
		{"chunk of one row", 9, 1},
	}
	keys := []string{"k", "s"}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmp := t.TempDir()
			in := makeRows(tc.rows)
			got := sortAll(t, in, keys, WithChunkSize(tc.chunkSize), WithTempDir(tmp))

			if len(got) != len(in) {
				t.Fatalf("expected %d rows, got %d", len(in), len(got))
			}
			seen := make(map[int]bool, len(got))
			for i, r := range got {
				seen[r["pos"].(int)] = true
				if i == 0 {
					continue
				}
				prev, _ := row.KeyOf(got[i-1], keys)
				cur, _ := row.KeyOf(r, keys)
				switch c := row.CompareKeys(prev, cur); {
				case c > 0:
					t.Fatalf("rows %d and %d out of order: %v then %v", i-1, i, got[i-1], r)
				case c == 0 && got[i-1]["pos"].(int) > r["pos"].(int):
					t.Fatalf("equal keys lost input order at %d: %v then %v", i, got[i-1], r)
				}
			}
			if len(seen) != len(in) {
				t.Errorf("output is not a permutation of the input")
			}
			if n := dirEntries(t, tmp); n != 0 {
				t.Errorf("expected spill directory removed, found %d entries", n)
			}
		})
	}
}

func TestSorter_PreservesValueTypes(t *testing.T) {
	in := []row.Row{
		{"k": 2, "i": 7, "f": 1.5, "s": "x", "b": true, "n": nil, "l": []any{"a", 1}},
		{"k": 1, "i64": int64(9)},
		{"k": 3},
	}
	got := sortAll(t, in, []string{"k"}, WithChunkSize(1), WithTempDir(t.TempDir()))
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %v", got)
	}
	if v, ok := got[0]["i64"].(int64); !ok || v != 9 {
		t.Errorf("int64 not preserved: %#v", got[0]["i64"])
	}
	r := got[1]
	if r["i"] != 7 || r["f"] != 1.5 || r["s"] != "x" || r["b"] != true {
		t.Errorf("scalar values not preserved: %#v", r)
	}
	if v, ok := r["n"]; !ok || v != nil {
		t.Errorf("nil value not preserved: %#v", r)
	}
	if l, ok := r["l"].([]any); !ok || len(l) != 2 || l[0] != "a" || l[1] != 1 {
		t.Errorf("list value not preserved: %#v", r["l"])
	}
	if len(got[2]) != 1 || got[2]["k"] != 3 {
		t.Errorf("unexpected last row: %#v", got[2])
	}
}

func TestSorter_SingleChunkStaysInMemory(t *testing.T) {
	tmp := t.TempDir()
	ctx := context.Background()
	it := New([]string{"k"}, WithChunkSize(10), WithTempDir(tmp)).Sort(pipeline.Slice(makeRows(5)))
	defer it.Close()

	if _, ok, err := it.Next(ctx); err != nil || !ok {
		t.Fatalf("expected a row, got ok=%v err=%v", ok, err)
	}
	if n := dirEntries(t, tmp); n != 0 {
		t.Errorf("single chunk should not spill, found %d entries", n)
	}
}

func TestSorter_CloseRemovesSpillFiles(t *testing.T) {
	tmp := t.TempDir()
	ctx := context.Background()
	it := New([]string{"k"}, WithChunkSize(2), WithTempDir(tmp)).Sort(pipeline.Slice(makeRows(10)))

	if _, ok, err := it.Next(ctx); err != nil || !ok {
		t.Fatalf("expected a row, got ok=%v err=%v", ok, err)
	}
	if n := dirEntries(t, tmp); n != 1 {
		t.Fatalf("expected one spill directory while iterating, found %d", n)
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	if n := dirEntries(t, tmp); n != 0 {
		t.Errorf("expected spill directory removed on Close, found %d entries", n)
	}
	if _, ok, _ := it.Next(ctx); ok {
		t.Error("expected no rows after Close")
	}
}

func TestSorter_MissingKeyCleansUp(t *testing.T) {
	tmp := t.TempDir()
	in := append(makeRows(6), row.Row{"s": "no key"})
	s := New([]string{"k"}, WithChunkSize(2), WithTempDir(tmp))
	_, err := pipeline.CollectIter(context.Background(), s.Sort(pipeline.Slice(in)))
	if !errors.IsCode(err, errors.ErrCodeMissingColumn) {
		t.Fatalf("expected MISSING_COLUMN, got %v", err)
	}
	if n := dirEntries(t, tmp); n != 0 {
		t.Errorf("expected spill directory removed after error, found %d entries", n)
	}
}

type failingSource struct {
	rows   []row.Row
	err    error
	closed bool
}

func (f *failingSource) Next(_ context.Context) (row.Row, bool, error) {
	if len(f.rows) == 0 {
		return nil, false, f.err
	}
	r := f.rows[0]
	f.rows = f.rows[1:]
	return r, true, nil
}

func (f *failingSource) Close() error {
	f.closed = true
	return nil
}

func TestSorter_SourceErrorClosesSource(t *testing.T) {
	tmp := t.TempDir()
	boom := fmt.Errorf("boom")
	src := &failingSource{rows: makeRows(5), err: boom}
	s := New([]string{"k"}, WithChunkSize(2), WithTempDir(tmp))

	ctx := context.Background()
	it := s.Sort(src)
	defer it.Close()
	if _, _, err := it.Next(ctx); err != boom {
		t.Fatalf("expected boom, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if r, ok, err := it.Next(ctx); ok || err != boom {
			t.Errorf("pull %d after failure = %v, %v, %v; want boom", i+1, r, ok, err)
		}
	}
	if !src.closed {
		t.Error("expected source closed")
	}
	if n := dirEntries(t, tmp); n != 0 {
		t.Errorf("expected spill directory removed after error, found %d entries", n)
	}
}

func TestSorter_Apply(t *testing.T) {
	p := New([]string{"n"}).Apply(pipeline.FromSlice([]row.Row{{"n": 3}, {"n": 1}, {"n": 2}}))
	for run := 0; run < 2; run++ {
		got, err := pipeline.Collect(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 || got[0]["n"] != 1 || got[1]["n"] != 2 || got[2]["n"] != 3 {
			t.Errorf("run %d: unexpected order %v", run, got)
		}
	}
}

func TestWithChunkSize_IgnoresNonPositive(t *testing.T) {
	s := New(nil, WithChunkSize(0))
	if s.cfg.ChunkSize != DefaultChunkSize {
		t.Errorf("expected default chunk size, got %d", s.cfg.ChunkSize)
	}
}
