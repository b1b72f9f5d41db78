package operations

import (
	"strings"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/row"
)

// Identity yields a copy of every row.
func Identity() MapperFunc {
	return func(r row.Row) ([]row.Row, error) {
		return []row.Row{row.Copy(r)}, nil
	}
}

// asciiPunctuation is every printable ASCII character that is neither a
// letter, a digit nor a space.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// FilterPunctuation removes ASCII punctuation from a string column.
// Non-string values pass through unchanged.
func FilterPunctuation(column string) MapperFunc {
	return stringMapper(column, func(s string) string {
		return strings.Map(func(c rune) rune {
			if strings.ContainsRune(asciiPunctuation, c) {
				return -1
			}
			return c
		}, s)
	})
}

// LowerCase lowercases a string column. Non-string values pass through
// unchanged.
func LowerCase(column string) MapperFunc {
	return stringMapper(column, strings.ToLower)
}

func stringMapper(column string, fn func(string) string) MapperFunc {
	return func(r row.Row) ([]row.Row, error) {
		v, err := r.Get(column)
		if err != nil {
			return nil, err
		}
		out := row.Copy(r)
		if s, ok := v.(string); ok {
			out[column] = fn(s)
		}
		return []row.Row{out}, nil
	}
}

// Split emits one row per whitespace-separated word of column. An empty or
// all-blank value yields no rows.
func Split(column string) MapperFunc {
	return splitter(column, strings.Fields)
}

// SplitBy emits one row per piece of column split on sep. An empty sep splits
// into characters. An empty value yields a single row holding "".
func SplitBy(column, sep string) MapperFunc {
	return splitter(column, func(s string) []string {
		if s == "" {
			return []string{""}
		}
		return strings.Split(s, sep)
	})
}

// splitter leaves rows whose column is absent or not a string untouched.
func splitter(column string, split func(string) []string) MapperFunc {
	return func(r row.Row) ([]row.Row, error) {
		s, ok := r[column].(string)
		if !ok {
			return []row.Row{row.Copy(r)}, nil
		}
		parts := split(s)
		out := make([]row.Row, 0, len(parts))
		for _, p := range parts {
			next := row.Copy(r)
			next[column] = p
			out = append(out, next)
		}
		return out, nil
	}
}

// Product stores the product of columns in result.
func Product(columns []string, result string) MapperFunc {
	return func(r row.Row) ([]row.Row, error) {
		var acc any = 1
		for _, c := range columns {
			v, err := r.Get(c)
			if err != nil {
				return nil, err
			}
			if !row.IsNumber(v) {
				return nil, errors.InvalidInput(c, "not a number")
			}
			acc = row.Mul(acc, v)
		}
		out := row.Copy(r)
		out[result] = acc
		return []row.Row{out}, nil
	}
}

// Filter keeps the rows for which keep returns true.
func Filter(keep func(row.Row) bool) MapperFunc {
	return func(r row.Row) ([]row.Row, error) {
		if !keep(r) {
			return nil, nil
		}
		return []row.Row{row.Copy(r)}, nil
	}
}

// Project keeps only columns. A missing column fails with MISSING_COLUMN.
func Project(columns []string) MapperFunc {
	return func(r row.Row) ([]row.Row, error) {
		out, err := row.Project(r, columns)
		if err != nil {
			return nil, err
		}
		return []row.Row{out}, nil
	}
}

// ComputeColumn stores fn(r) in column.
func ComputeColumn(column string, fn func(row.Row) (any, error)) MapperFunc {
	return func(r row.Row) ([]row.Row, error) {
		v, err := fn(r)
		if err != nil {
			return nil, err
		}
		out := row.Copy(r)
		out[column] = v
		return []row.Row{out}, nil
	}
}

// Rename moves column from to column to.
func Rename(from, to string) MapperFunc {
	return func(r row.Row) ([]row.Row, error) {
		v, err := r.Get(from)
		if err != nil {
			return nil, err
		}
		out := row.Copy(r)
		delete(out, from)
		out[to] = v
		return []row.Row{out}, nil
	}
}
