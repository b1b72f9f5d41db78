// Package operations holds the streaming operators of a compgraph pipeline
// and the capabilities plugged into them.
//
// The four operators work on pipeline.Pipeline[row.Row]:
//
//   - Read, ReadFile: sources
//   - Map: 1:N per-row expansion through a Mapper
//   - Reduce: per-group aggregation through a Reducer
//   - Join: merge of two sorted streams through a Joiner
//
// Reduce and Join require their inputs to be sorted non-decreasingly on the
// key columns. Unsorted input is not detected; it only produces wrong groups.
//
// Mappers, reducers and joiners hold no state between rows or groups, so one
// value can be reused by any number of pipelines and runs.
package operations
