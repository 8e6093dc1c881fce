package jsonl

import (
	"bufio"
	"io"
	"os"

	"github.com/mxkacsa/jsonla/value"
)

// Writer serializes Records to line-delimited JSON.
type Writer struct {
	w        *bufio.Writer
	closer   io.Closer
	sortKeys bool
	buf      []byte
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// SortKeys enables sorted-keys output instead of insertion order.
func SortKeys() WriterOption {
	return func(w *Writer) { w.sortKeys = true }
}

// Create opens path for writing, or stdout if path is "-" or empty.
func Create(path string, opts ...WriterOption) (*Writer, error) {
	if path == "" || path == "-" {
		return NewWriter(os.Stdout, opts...), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewWriter(f, opts...)
	w.closer = f
	return w, nil
}

// NewWriter wraps an already-open io.Writer.
func NewWriter(dst io.Writer, opts ...WriterOption) *Writer {
	w := &Writer{w: bufio.NewWriter(dst)}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Write serializes one record followed by a newline.
func (w *Writer) Write(rec value.Record) error {
	w.buf = w.buf[:0]
	var err error
	w.buf, err = value.AppendJSON(w.buf, rec, w.sortKeys)
	if err != nil {
		return err
	}
	w.buf = append(w.buf, '\n')
	_, err = w.w.Write(w.buf)
	return err
}

// Flush flushes any buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Close flushes and closes the underlying file, if any.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
