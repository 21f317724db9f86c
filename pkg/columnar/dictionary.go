package columnar

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

const (
	// NotFound is the code reported for strings absent from a dictionary.
	NotFound uint32 = 0
	// NoDictionary is stored for every row of an enum column that has no
	// dictionary configured.
	NoDictionary uint32 = math.MaxUint32
)

// Entry is the dictionary state for one distinct string.
type Entry struct {
	Code  uint32 `json:"code"`
	Count int    `json:"count"`
}

// Dictionary assigns stable codes to strings and counts how often each was
// seen. It is safe for concurrent use; updates to one key never block updates
// to another.
type Dictionary struct {
	m    *xsync.MapOf[string, Entry]
	next atomic.Uint32
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{m: xsync.NewMapOf[string, Entry]()}
}

// NewDictionaryFrom returns a dictionary pre-loaded with entries. New strings
// receive codes after the highest pre-loaded code.
func NewDictionaryFrom(entries map[string]Entry) *Dictionary {
	d := &Dictionary{m: xsync.NewMapOf[string, Entry](xsync.WithPresize(len(entries)))}
	var highest uint32
	for k, e := range entries {
		d.m.Store(k, e)
		highest = max(highest, e.Code)
	}
	d.next.Store(max(highest, uint32(len(entries))))
	return d
}

// Observe records one sighting of key and returns its code. The first
// sighting assigns the next code and a count of 1; later sightings reuse the
// code and increment the count. The update is atomic per key.
func (d *Dictionary) Observe(key string) uint32 {
	e, _ := d.m.Compute(key, func(old Entry, loaded bool) (Entry, bool) {
		if !loaded {
			old.Code = d.nextCode()
		}
		old.Count++
		return old, false
	})
	return e.Code
}

func (d *Dictionary) nextCode() uint32 {
	for {
		cur := d.next.Load()
		if cur >= NoDictionary-1 {
			// Codes are exhausted; keep reporting the sentinel.
			return NoDictionary
		}
		if d.next.CompareAndSwap(cur, cur+1) {
			return cur + 1
		}
	}
}

// Lookup returns the entry for key without modifying the dictionary.
func (d *Dictionary) Lookup(key string) (Entry, bool) {
	return d.m.Load(key)
}

// Code returns the code for key, or NotFound.
func (d *Dictionary) Code(key string) uint32 {
	if e, ok := d.m.Load(key); ok {
		return e.Code
	}
	return NotFound
}

// Len returns the number of distinct strings.
func (d *Dictionary) Len() int {
	return d.m.Size()
}

// Snapshot copies the current entries. Concurrent updates may or may not be
// included.
func (d *Dictionary) Snapshot() map[string]Entry {
	out := make(map[string]Entry, d.m.Size())
	d.m.Range(func(k string, e Entry) bool {
		out[k] = e
		return true
	})
	return out
}

// Reverse maps codes back to their strings. Several strings share a code only
// when the dictionary was pre-loaded that way; they are sorted.
func (d *Dictionary) Reverse() map[uint64][]string {
	out := make(map[uint64][]string, d.m.Size())
	d.m.Range(func(k string, e Entry) bool {
		out[uint64(e.Code)] = append(out[uint64(e.Code)], k)
		return true
	})
	for _, v := range out {
		sort.Strings(v)
	}
	return out
}

// EnumMaps holds the dictionary of every enum column, keyed by column index.
type EnumMaps struct {
	m *xsync.MapOf[int, *Dictionary]
}

// NewEnumMaps returns an empty set of dictionaries.
func NewEnumMaps() *EnumMaps {
	return &EnumMaps{m: xsync.NewMapOf[int, *Dictionary]()}
}

// Get returns the dictionary for column, if one is configured.
func (e *EnumMaps) Get(column int) (*Dictionary, bool) {
	if e == nil {
		return nil, false
	}
	return e.m.Load(column)
}

// Set configures the dictionary for column.
func (e *EnumMaps) Set(column int, d *Dictionary) {
	e.m.Store(column, d)
}

// GetOrCreate returns the dictionary for column, creating an empty one when
// none is configured.
func (e *EnumMaps) GetOrCreate(column int) *Dictionary {
	d, _ := e.m.LoadOrCompute(column, NewDictionary)
	return d
}

// Columns returns the configured column indexes in ascending order.
func (e *EnumMaps) Columns() []int {
	var cols []int
	e.m.Range(func(k int, _ *Dictionary) bool {
		cols = append(cols, k)
		return true
	})
	sort.Ints(cols)
	return cols
}

// Reverse returns the reverse map of every configured dictionary.
func (e *EnumMaps) Reverse() map[int]map[uint64][]string {
	out := make(map[int]map[uint64][]string)
	e.m.Range(func(k int, d *Dictionary) bool {
		out[k] = d.Reverse()
		return true
	})
	return out
}
