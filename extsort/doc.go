// Package extsort sorts row streams larger than memory.
//
// The input is cut into chunks of ChunkSize rows. Each chunk is sorted in
// memory; when there is more than one, every chunk is written to a spill
// file and the files are merged lazily with a k-way heap merge. A stream
// that fits in one chunk never touches disk.
//
// Rows are ordered by their key projection and then by input position, so
// rows with equal keys keep their input order across chunk boundaries.
//
// Each sort owns a private directory under TempDir. It is removed when the
// output is exhausted, when an error is returned, or when the iterator is
// closed.
package extsort
