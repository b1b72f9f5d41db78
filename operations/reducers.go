package operations

import (
	"container/heap"
	"context"
	"slices"

	"github.com/kbukum/compgraph/pipeline"
	"github.com/kbukum/compgraph/row"
)

// First emits the first row of each group.
func First() ReducerFunc {
	return func(ctx context.Context, _ []string, group pipeline.Iterator[row.Row]) ([]row.Row, error) {
		r, ok, err := group.Next(ctx)
		if err != nil || !ok {
			return nil, err
		}
		return []row.Row{row.Copy(r)}, nil
	}
}

// Count emits the key columns of each group plus its row count in column.
func Count(column string) ReducerFunc {
	return func(ctx context.Context, keys []string, group pipeline.Iterator[row.Row]) ([]row.Row, error) {
		var (
			first row.Row
			n     int
		)
		err := each(ctx, group, func(r row.Row) error {
			if first == nil {
				first = r
			}
			n++
			return nil
		})
		if err != nil || first == nil {
			return nil, err
		}
		out, err := row.Project(first, keys)
		if err != nil {
			return nil, err
		}
		out[column] = n
		return []row.Row{out}, nil
	}
}

// Sum emits the key columns of each group plus the sum of column. Values
// that are not numbers are skipped; a missing column fails.
func Sum(column string) ReducerFunc {
	return func(ctx context.Context, keys []string, group pipeline.Iterator[row.Row]) ([]row.Row, error) {
		var (
			first row.Row
			total any = 0
		)
		err := each(ctx, group, func(r row.Row) error {
			if first == nil {
				first = r
			}
			v, err := r.Get(column)
			if err != nil {
				return err
			}
			if row.IsNumber(v) {
				total = row.Add(total, v)
			}
			return nil
		})
		if err != nil || first == nil {
			return nil, err
		}
		out, err := row.Project(first, keys)
		if err != nil {
			return nil, err
		}
		out[column] = total
		return []row.Row{out}, nil
	}
}

// Average emits the key columns of each group plus the mean of column in
// result. Numbers and numeric strings count; anything else, including a
// missing column, is skipped. A group without a single numeric value emits
// nothing.
func Average(column, result string) ReducerFunc {
	return func(ctx context.Context, keys []string, group pipeline.Iterator[row.Row]) ([]row.Row, error) {
		var (
			first row.Row
			sum   float64
			n     int
		)
		err := each(ctx, group, func(r row.Row) error {
			if first == nil {
				first = r
			}
			if f, ok := row.ParseFloat(r[column]); ok {
				sum += f
				n++
			}
			return nil
		})
		if err != nil || n == 0 {
			return nil, err
		}
		out, err := row.Project(first, keys)
		if err != nil {
			return nil, err
		}
		out[result] = sum / float64(n)
		return []row.Row{out}, nil
	}
}

// TermFrequency emits, for every distinct value of wordColumn in a group,
// the key columns, the value and its share of the group's rows in result.
// Rows come out in the order values were first seen.
func TermFrequency(wordColumn, result string) ReducerFunc {
	return func(ctx context.Context, keys []string, group pipeline.Iterator[row.Row]) ([]row.Row, error) {
		var (
			first  row.Row
			total  int
			words  []any
			counts = make(map[string]int)
		)
		err := each(ctx, group, func(r row.Row) error {
			if first == nil {
				first = r
			}
			w, err := r.Get(wordColumn)
			if err != nil {
				return err
			}
			id := row.KeyString(row.Key{w})
			if _, seen := counts[id]; !seen {
				words = append(words, w)
			}
			counts[id]++
			total++
			return nil
		})
		if err != nil || total == 0 {
			return nil, err
		}
		base, err := row.Project(first, keys)
		if err != nil {
			return nil, err
		}
		out := make([]row.Row, 0, len(words))
		for _, w := range words {
			r := row.Copy(base)
			r[wordColumn] = w
			r[result] = float64(counts[row.KeyString(row.Key{w})]) / float64(total)
			out = append(out, r)
		}
		return out, nil
	}
}

// TopN emits up to n rows of each group with the largest numeric values of
// column, largest first. A later row with a value equal to the current
// cutoff takes the cutoff's place. Equal values come out in input order.
// Rows whose value is not a number are skipped.
func TopN(column string, n int) ReducerFunc {
	return func(ctx context.Context, _ []string, group pipeline.Iterator[row.Row]) ([]row.Row, error) {
		if n <= 0 {
			return nil, nil
		}
		h := make(topHeap, 0, n)
		idx := 0
		err := each(ctx, group, func(r row.Row) error {
			v, err := r.Get(column)
			if err != nil {
				return err
			}
			if !row.IsNumber(v) {
				return nil
			}
			item := topItem{value: v, idx: idx, row: r}
			idx++
			switch {
			case len(h) < n:
				heap.Push(&h, item)
			case !item.less(h[0]):
				h[0] = item
				heap.Fix(&h, 0)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		slices.SortFunc(h, func(a, b topItem) int {
			if c := row.Compare(b.value, a.value); c != 0 {
				return c
			}
			return a.idx - b.idx
		})
		out := make([]row.Row, len(h))
		for i, it := range h {
			out[i] = row.Copy(it.row)
		}
		return out, nil
	}
}

type topItem struct {
	value any
	idx   int
	row   row.Row
}

func (a topItem) less(b topItem) bool {
	if c := row.Compare(a.value, b.value); c != 0 {
		return c < 0
	}
	return a.idx < b.idx
}

// topHeap is a min-heap on (value, idx).
type topHeap []topItem

func (h topHeap) Len() int           { return len(h) }
func (h topHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h topHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *topHeap) Push(x any)        { *h = append(*h, x.(topItem)) }
func (h *topHeap) Pop() any {
	old := *h
	it := old[len(old)-1]
	*h = old[:len(old)-1]
	return it
}

// each calls fn for every row of group.
func each(ctx context.Context, group pipeline.Iterator[row.Row], fn func(row.Row) error) error {
	for {
		r, ok, err := group.Next(ctx)
		if err != nil || !ok {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
}
