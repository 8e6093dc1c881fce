package jsonl

import (
	"bufio"
	"container/list"
	"fmt"
	"os"

	"github.com/mxkacsa/jsonla/value"
)

// DefaultCacheSize is the default LRU capacity for LazyIndex: a cache
// bounded by record count (default 100).
const DefaultCacheSize = 100

// LazyIndex provides random access into a JSONL file by record index. On
// first access it scans the whole file once and builds a sparse
// record_index -> byte_offset table; subsequent reads seek directly to
// the recorded offset and parse exactly one line.
//
// Parsed records are cached in a bounded map+doubly-linked-list LRU, so
// repeated access to the same index range stays cheap without holding
// the whole file in memory.
type LazyIndex struct {
	path      string
	offsets   []int64 // record_index -> byte_offset
	cacheCap  int
	cache     map[int]*list.Element
	order     *list.List // front = most recently used
	indexedAt bool
}

type cacheEntry struct {
	idx int
	rec value.Record
}

// NewLazyIndex prepares an index over path without scanning it yet.
func NewLazyIndex(path string, cacheCap int) *LazyIndex {
	if cacheCap <= 0 {
		cacheCap = DefaultCacheSize
	}
	return &LazyIndex{
		path:     path,
		cacheCap: cacheCap,
		cache:    make(map[int]*list.Element),
		order:    list.New(),
	}
}

// Len returns the number of records, scanning the file on first call.
func (x *LazyIndex) Len() (int, error) {
	if err := x.ensureIndexed(); err != nil {
		return 0, err
	}
	return len(x.offsets), nil
}

func (x *LazyIndex) ensureIndexed() error {
	if x.indexedAt {
		return nil
	}
	f, err := os.Open(x.path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var offset int64
	for {
		lineStart := offset
		line, err := reader.ReadString('\n')
		offset += int64(len(line))
		trimmed := trimSpaceASCII([]byte(line))
		if len(trimmed) > 0 {
			x.offsets = append(x.offsets, lineStart)
		}
		if err != nil {
			break
		}
	}
	x.indexedAt = true
	return nil
}

// At returns the record at the given 0-based index, using the LRU cache
// when possible and seeking+parsing exactly one line otherwise.
func (x *LazyIndex) At(idx int) (value.Record, error) {
	if err := x.ensureIndexed(); err != nil {
		return value.Value{}, err
	}
	if idx < 0 || idx >= len(x.offsets) {
		return value.Value{}, fmt.Errorf("jsonl: index %d out of range [0,%d)", idx, len(x.offsets))
	}
	if el, ok := x.cache[idx]; ok {
		x.order.MoveToFront(el)
		return el.Value.(*cacheEntry).rec, nil
	}

	f, err := os.Open(x.path)
	if err != nil {
		return value.Value{}, err
	}
	defer f.Close()
	if _, err := f.Seek(x.offsets[idx], 0); err != nil {
		return value.Value{}, err
	}
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return value.Value{}, err
	}
	rec, err := value.ParseRecord(trimSpaceASCII([]byte(line)))
	if err != nil {
		return value.Value{}, err
	}

	x.put(idx, rec)
	return rec, nil
}

func (x *LazyIndex) put(idx int, rec value.Record) {
	if el, ok := x.cache[idx]; ok {
		el.Value.(*cacheEntry).rec = rec
		x.order.MoveToFront(el)
		return
	}
	el := x.order.PushFront(&cacheEntry{idx: idx, rec: rec})
	x.cache[idx] = el
	if x.order.Len() > x.cacheCap {
		oldest := x.order.Back()
		if oldest != nil {
			x.order.Remove(oldest)
			delete(x.cache, oldest.Value.(*cacheEntry).idx)
		}
	}
}
