// Package jsonl reads and writes rows as line-delimited JSON, one object per
// line.
package jsonl

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/operations"
	"github.com/kbukum/compgraph/pipeline"
	"github.com/kbukum/compgraph/row"
)

// ParseLine decodes one JSON object, which must be the only value on the
// line. Blank lines yield a nil row, which
// operations.ReadFile skips. Integral numbers become int64, other numbers
// float64.
func ParseLine(line string) (row.Row, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.InvalidInput("line", "unexpected data after the JSON object")
	}
	if obj == nil {
		return nil, errors.InvalidInput("line", "expected a JSON object")
	}
	for k, v := range obj {
		obj[k] = normalize(v)
	}
	return row.Row(obj), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalize(t[k])
		}
		return t
	}
	return v
}

// ReadFile returns a source reading the JSON lines file at path. The file is
// reopened on every call.
func ReadFile(path string) graph.Source {
	p := operations.ReadFile(path, ParseLine)
	return func() pipeline.Iterator[row.Row] {
		return p.Iter(context.Background())
	}
}

// Write encodes every row of it to w, one object per line, and closes it.
// It returns the number of rows written.
func Write(ctx context.Context, w io.Writer, it pipeline.Iterator[row.Row]) (int, error) {
	lines := pipeline.Map(pipeline.From(it), func(_ context.Context, r row.Row) ([]byte, error) {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, errors.InvalidInput("row", err.Error())
		}
		return append(b, '\n'), nil
	})

	bw := bufio.NewWriter(w)
	n := 0
	err := pipeline.ForEach(ctx, lines, func(_ context.Context, line []byte) error {
		if _, err := bw.Write(line); err != nil {
			return errors.IO("write", "", err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	if err := bw.Flush(); err != nil {
		return n, errors.IO("write", "", err)
	}
	return n, nil
}
