package row

import (
	"maps"

	"github.com/kbukum/compgraph/errors"
)

// Row is a single record: column name to value.
type Row map[string]any

// Key is the tuple of values a row has under an ordered list of columns.
type Key []any

// Copy returns a shallow copy of r.
func Copy(r Row) Row {
	out := make(Row, len(r))
	maps.Copy(out, r)
	return out
}

// Get returns the value of column, failing with MISSING_COLUMN when absent.
func (r Row) Get(column string) (any, error) {
	v, ok := r[column]
	if !ok {
		return nil, errors.MissingColumn(column)
	}
	return v, nil
}

// KeyOf projects r onto columns. An absent column fails with MISSING_COLUMN.
func KeyOf(r Row, columns []string) (Key, error) {
	key := make(Key, len(columns))
	for i, c := range columns {
		v, ok := r[c]
		if !ok {
			return nil, errors.MissingColumn(c)
		}
		key[i] = v
	}
	return key, nil
}

// Project returns a new row holding only columns.
func Project(r Row, columns []string) (Row, error) {
	out := make(Row, len(columns))
	for _, c := range columns {
		v, ok := r[c]
		if !ok {
			return nil, errors.MissingColumn(c)
		}
		out[c] = v
	}
	return out, nil
}

// FromKey builds a row holding columns[i] = key[i].
func FromKey(columns []string, key Key) Row {
	out := make(Row, len(columns))
	for i, c := range columns {
		out[c] = key[i]
	}
	return out
}
