// Package pipeline provides composable, pull-based iterators.
//
// Pipelines are lazy: no work happens until values are pulled via Collect,
// Drain, ForEach or an Iterator obtained from Iter. Each stage pulls from the
// previous stage on demand, on the caller's goroutine. No operator in this
// package starts a goroutine, so a stage's Next and Close are never called
// concurrently.
//
// # Operators
//
//   - Map: transform each value
//   - FlatMap: transform each value into multiple values
//   - Filter: keep values matching a predicate
//   - Tap: side-effect without altering the value (counting, logging)
//   - Batch: group consecutive values into fixed-size slices
//   - Peekable: look at the next value without consuming it
//
// # Usage
//
//	src := pipeline.FromSlice([]int{1, 2, 3, 4, 5})
//	doubled := pipeline.Map(src, func(_ context.Context, n int) (int, error) {
//	    return n * 2, nil
//	})
//	evens := pipeline.Filter(doubled, func(n int) bool { return n%4 == 0 })
//	results, _ := pipeline.Collect(ctx, evens)
//
// Closing an iterator closes every stage upstream of it, which is how early
// abandonment releases files and temporary storage.
package pipeline
