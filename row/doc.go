// Package row defines the data model shared by every compgraph operator.
//
// A Row is a map from column name to value. Operators never mutate the rows
// they receive; anything that changes a row works on a Copy.
//
// Group keys are tuples of column values compared with a total order:
//
//	nil < bool < numbers < string < []any < anything else
//
// Numbers of any Go integer or float kind compare by value, so int(3),
// int64(3) and 3.0 belong to the same group.
package row
