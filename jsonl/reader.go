// Package jsonl implements the I/O layer: a lazy line-oriented JSONL
// reader and writer, plus a random-access index used by the workspace's
// dataset navigation.
package jsonl

import (
	"bufio"
	"io"
	"os"

	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/value"
)

// Reader lazily yields Records from an underlying line source. It holds
// at most one parsed record and one source line at a time, a single-
// buffered idiom that keeps memory use independent of file size.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	path    string
	line    int
	lenient bool
	skipped int
	err     error
	done    bool
}

// Option configures a Reader.
type Option func(*Reader)

// Lenient enables skip-and-count behavior for malformed lines instead of
// aborting on the first parse error.
func Lenient() Option {
	return func(r *Reader) { r.lenient = true }
}

// Open opens path for reading, or stdin if path is "-" or empty.
func Open(path string, opts ...Option) (*Reader, error) {
	if path == "" || path == "-" {
		return New(os.Stdin, "-", opts...), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, jsonlaerr.Wrap(jsonlaerr.InputParseError, err, "open %s", path)
	}
	r := New(f, path, opts...)
	r.closer = f
	return r, nil
}

// New wraps an already-open io.Reader. name is used in diagnostics.
func New(src io.Reader, name string, opts ...Option) *Reader {
	r := &Reader{
		scanner: bufio.NewScanner(src),
		path:    name,
	}
	r.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for _, o := range opts {
		o(r)
	}
	return r
}

// Skipped returns the number of lines skipped so far in lenient mode.
func (r *Reader) Skipped() int { return r.skipped }

// Next returns the next Record, or (Record{}, false, nil) at EOF. Blank
// lines are skipped without counting as errors. On a fatal parse error
// (non-lenient mode), it returns an error once and then behaves as
// exhausted on subsequent calls.
func (r *Reader) Next() (value.Record, bool, error) {
	if r.done {
		return value.Value{}, false, nil
	}
	if r.err != nil {
		return value.Value{}, false, r.err
	}
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Bytes()
		trimmed := trimSpaceASCII(raw)
		if len(trimmed) == 0 {
			continue
		}
		rec, err := value.ParseRecord(trimmed)
		if err != nil {
			perr := jsonlaerr.Wrap(jsonlaerr.InputParseError, err, "parse error").AtLine(r.path, r.line)
			if r.lenient {
				r.skipped++
				continue
			}
			r.err = perr
			r.done = true
			return value.Value{}, false, perr
		}
		return rec, true, nil
	}
	r.done = true
	if err := r.scanner.Err(); err != nil {
		r.err = jsonlaerr.Wrap(jsonlaerr.InputParseError, err, "read error").AtLine(r.path, r.line)
		return value.Value{}, false, r.err
	}
	return value.Value{}, false, nil
}

// Close releases the underlying file handle, if any. Early termination
// (e.g. take(n)) must call Close so file handles close on drop.
func (r *Reader) Close() error {
	r.done = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func trimSpaceASCII(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpaceByte(b[start]) {
		start++
	}
	for end > start && isSpaceByte(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
