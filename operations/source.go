package operations

import (
	"bufio"
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"strings"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/pipeline"
	"github.com/kbukum/compgraph/row"
)

// maxLineSize bounds a single input line.
const maxLineSize = 64 << 20

// LineParser turns one line of a file, without its line terminator, into a
// row. Returning a nil row skips the line.
type LineParser func(line string) (row.Row, error)

// ReadFile yields one row per line of the file at path. The file is opened
// on the first pull and closed on exhaustion, on error, or on Close.
//
// A missing file fails with NOT_FOUND, other read failures with IO_ERROR and
// parser failures with INVALID_FORMAT carrying the 1-based line number.
func ReadFile(path string, parser LineParser) *pipeline.Pipeline[row.Row] {
	parsed := pipeline.FromFunc(func(_ context.Context) pipeline.Iterator[row.Row] {
		return &fileIter{path: path, parser: parser}
	})
	return pipeline.Filter(parsed, func(r row.Row) bool { return r != nil })
}

// fileIter yields the parser's result for every line, nil rows included.
type fileIter struct {
	path   string
	parser LineParser

	file    *os.File
	scanner *bufio.Scanner
	line    int
	done    bool
	err     error
}

func (it *fileIter) Next(ctx context.Context) (row.Row, bool, error) {
	if it.done {
		return nil, false, it.err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if it.file == nil {
		if err := it.open(); err != nil {
			return nil, false, it.fail(err)
		}
	}

	if it.scanner.Scan() {
		it.line++
		line := strings.TrimSuffix(it.scanner.Text(), "\r")
		r, err := it.parser(line)
		if err != nil {
			return nil, false, it.fail(errors.InvalidFormat(it.path, it.line, err))
		}
		return r, true, nil
	}

	if err := it.scanner.Err(); err != nil {
		return nil, false, it.fail(errors.IO("read", it.path, err))
	}
	_ = it.Close()
	return nil, false, nil
}

// fail closes the file and keeps err for every later Next.
func (it *fileIter) fail(err error) error {
	_ = it.Close()
	it.err = err
	return err
}

func (it *fileIter) open() error {
	f, err := os.Open(it.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.FileNotFound(it.path, err)
		}
		return errors.IO("open", it.path, err)
	}
	it.file = f
	it.scanner = bufio.NewScanner(f)
	it.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return nil
}

func (it *fileIter) Close() error {
	it.done = true
	if it.file == nil {
		return nil
	}
	err := it.file.Close()
	it.file = nil
	return err
}
