package operations

import (
	"context"
	"testing"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/pipeline"
	"github.com/kbukum/compgraph/row"
)

func reduceAll(t *testing.T, r Reducer, keys []string, in ...row.Row) []row.Row {
	t.Helper()
	return collect(t, Reduce(pipeline.FromSlice(in), r, keys))
}

func TestCount(t *testing.T) {
	got := reduceAll(t, Count("n"), []string{"k"},
		row.Row{"k": 1, "x": "a"},
		row.Row{"k": 1, "x": "b"},
		row.Row{"k": 2, "x": "c"},
	)
	assertRows(t, got, []row.Row{{"k": 1, "n": 2}, {"k": 2, "n": 1}})
}

func TestSum(t *testing.T) {
	tests := []struct {
		name string
		in   []row.Row
		want []row.Row
	}{
		{
			name: "ints stay ints",
			in:   []row.Row{{"k": "a", "v": 1, "x": 9}, {"k": "a", "v": 2}},
			want: []row.Row{{"k": "a", "v": 3}},
		},
		{
			name: "floats widen",
			in:   []row.Row{{"k": "a", "v": 1}, {"k": "a", "v": 0.5}},
			want: []row.Row{{"k": "a", "v": 1.5}},
		},
		{
			name: "non-numbers skipped",
			in:   []row.Row{{"k": "a", "v": nil}, {"k": "a", "v": "x"}, {"k": "a", "v": 4}},
			want: []row.Row{{"k": "a", "v": 4}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertRows(t, reduceAll(t, Sum("v"), []string{"k"}, tc.in...), tc.want)
		})
	}
}

func TestSum_MissingColumn(t *testing.T) {
	p := Reduce(rowsOf(row.Row{"k": 1}), Sum("v"), []string{"k"})
	_, err := pipeline.Collect(context.Background(), p)
	if !errors.IsCode(err, errors.ErrCodeMissingColumn) {
		t.Fatalf("expected MISSING_COLUMN, got %v", err)
	}
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name string
		in   []row.Row
		want []row.Row
	}{
		{
			name: "numbers",
			in:   []row.Row{{"g": 1, "v": 2}, {"g": 1, "v": 4}},
			want: []row.Row{{"g": 1, "avg": 3.0}},
		},
		{
			name: "numeric strings count, others skipped",
			in:   []row.Row{{"g": 1, "v": nil}, {"g": 1, "v": "2"}, {"g": 1, "v": "bad"}, {"g": 1, "v": 4}},
			want: []row.Row{{"g": 1, "avg": 3.0}},
		},
		{
			name: "missing column skipped",
			in:   []row.Row{{"g": 1}, {"g": 1, "v": "oops"}, {"g": 1, "v": 6}},
			want: []row.Row{{"g": 1, "avg": 6.0}},
		},
		{
			name: "no numeric values",
			in:   []row.Row{{"g": 1, "v": nil}, {"g": 1, "v": "x"}},
			want: nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertRows(t, reduceAll(t, Average("v", "avg"), []string{"g"}, tc.in...), tc.want)
		})
	}
}

func TestTermFrequency(t *testing.T) {
	got := reduceAll(t, TermFrequency("text", "tf"), []string{"doc_id"},
		row.Row{"doc_id": "doc1", "text": "a"},
		row.Row{"doc_id": "doc1", "text": "a"},
		row.Row{"doc_id": "doc1", "text": "b"},
		row.Row{"doc_id": "doc2", "text": "c"},
	)
	assertRows(t, got, []row.Row{
		{"doc_id": "doc1", "text": "a", "tf": 2.0 / 3.0},
		{"doc_id": "doc1", "text": "b", "tf": 1.0 / 3.0},
		{"doc_id": "doc2", "text": "c", "tf": 1.0},
	})
}

func TestTopN(t *testing.T) {
	tests := []struct {
		name string
		n    int
		in   []row.Row
		want []string
	}{
		{
			name: "latest tie takes the cutoff",
			n:    2,
			in: []row.Row{
				{"id": "small", "v": 1},
				{"id": "largest", "v": 3},
				{"id": "middle", "v": 2},
				{"id": "latest_top", "v": 3},
			},
			want: []string{"largest", "latest_top"},
		},
		{
			name: "descending output",
			n:    3,
			in: []row.Row{
				{"id": "a", "v": 1}, {"id": "b", "v": 5.5}, {"id": "c", "v": 3}, {"id": "d", "v": 4},
			},
			want: []string{"b", "d", "c"},
		},
		{
			name: "fewer rows than n",
			n:    10,
			in:   []row.Row{{"id": "a", "v": 1}, {"id": "b", "v": 2}},
			want: []string{"b", "a"},
		},
		{
			name: "non-numbers skipped",
			n:    2,
			in:   []row.Row{{"id": "a", "v": nil}, {"id": "b", "v": "9"}, {"id": "c", "v": 1}},
			want: []string{"c"},
		},
		{
			name: "zero n",
			n:    0,
			in:   []row.Row{{"id": "a", "v": 1}},
			want: nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := reduceAll(t, TopN("v", tc.n), nil, tc.in...)
			var ids []string
			for _, r := range got {
				ids = append(ids, r["id"].(string))
			}
			if len(ids) != len(tc.want) {
				t.Fatalf("got %v, want %v", ids, tc.want)
			}
			for i := range ids {
				if ids[i] != tc.want[i] {
					t.Errorf("got %v, want %v", ids, tc.want)
					break
				}
			}
		})
	}
}

func TestTopN_PerGroup(t *testing.T) {
	got := reduceAll(t, TopN("v", 1), []string{"g"},
		row.Row{"g": "a", "v": 1},
		row.Row{"g": "a", "v": 2},
		row.Row{"g": "b", "v": 7},
	)
	assertRows(t, got, []row.Row{{"g": "a", "v": 2}, {"g": "b", "v": 7}})
}

func TestFirst(t *testing.T) {
	got := reduceAll(t, First(), []string{"k"},
		row.Row{"k": 1, "v": "x"},
		row.Row{"k": 1, "v": "y"},
	)
	assertRows(t, got, []row.Row{{"k": 1, "v": "x"}})
}
