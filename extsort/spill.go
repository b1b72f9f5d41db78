package extsort

import (
	"bufio"
	"container/heap"
	"encoding/gob"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/row"
)

func init() {
	// Concrete types that may sit inside a row's interface values beyond the
	// ones gob knows already.
	gob.Register([]any{})
	gob.Register(map[string]any{})
}

// record is the on-disk form of an entry. The key is recomputed on read.
type record struct {
	Seq int64
	Row map[string]any
}

func chunkName(i int) string {
	return fmt.Sprintf("chunk-%06d.gob", i)
}

func writeChunk(path string, chunk []entry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.IO("create spill file", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.IO("close spill file", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	enc := gob.NewEncoder(w)
	for _, e := range chunk {
		if err := enc.Encode(record{Seq: e.seq, Row: e.row}); err != nil {
			return errors.IO("write spill file", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.IO("write spill file", path, err)
	}
	return nil
}

// chunkReader streams one spill file, holding its next entry in head.
type chunkReader struct {
	path string
	file *os.File
	dec  *gob.Decoder
	keys []string
	head entry
}

func openChunk(path string, keys []string) (*chunkReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IO("open spill file", path, err)
	}
	return &chunkReader{
		path: path,
		file: f,
		dec:  gob.NewDecoder(bufio.NewReader(f)),
		keys: keys,
	}, nil
}

// advance loads the next entry into head. It reports false at end of file.
func (c *chunkReader) advance() (bool, error) {
	var rec record
	if err := c.dec.Decode(&rec); err != nil {
		if stderrors.Is(err, io.EOF) {
			return false, nil
		}
		return false, errors.IO("read spill file", c.path, err)
	}
	r := row.Row(rec.Row)
	if r == nil {
		r = row.Row{}
	}
	key, err := row.KeyOf(r, c.keys)
	if err != nil {
		return false, err
	}
	c.head = entry{key: key, seq: rec.Seq, row: r}
	return true, nil
}

func (c *chunkReader) close() {
	_ = c.file.Close()
}

// merger yields the smallest head among all open chunks.
type merger struct {
	readers readerHeap
	all     []*chunkReader
}

func newMerger(paths []string, keys []string) (*merger, error) {
	m := &merger{}
	for _, p := range paths {
		c, err := openChunk(p, keys)
		if err != nil {
			m.close()
			return nil, err
		}
		m.all = append(m.all, c)
		ok, err := c.advance()
		if err != nil {
			m.close()
			return nil, err
		}
		if ok {
			m.readers = append(m.readers, c)
		}
	}
	heap.Init(&m.readers)
	return m, nil
}

func (m *merger) next() (entry, bool, error) {
	if len(m.readers) == 0 {
		return entry{}, false, nil
	}
	top := m.readers[0]
	e := top.head
	ok, err := top.advance()
	if err != nil {
		return entry{}, false, err
	}
	if ok {
		heap.Fix(&m.readers, 0)
	} else {
		heap.Pop(&m.readers)
	}
	return e, true, nil
}

func (m *merger) close() {
	for _, c := range m.all {
		c.close()
	}
	m.all, m.readers = nil, nil
}

type readerHeap []*chunkReader

func (h readerHeap) Len() int           { return len(h) }
func (h readerHeap) Less(i, j int) bool { return compareEntries(h[i].head, h[j].head) < 0 }
func (h readerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *readerHeap) Push(x any)        { *h = append(*h, x.(*chunkReader)) }
func (h *readerHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}
