// Package columnar implements chunked, type-erased columns over Apache Arrow
// arrays together with the concurrent dictionaries used to encode enum
// columns.
//
// # Columns
//
// A Column is an ordered list of arrow.Array chunks that all share one data
// type. Alongside the chunks it keeps a cumulative length index:
//
//	cumlen[0] = 0
//	cumlen[k+1] = cumlen[k] + chunks[k].Len()
//
// so the chunk holding logical row i is found by binary search and the value
// is read from offset i - cumlen[k]. Appending one column to another moves
// chunk handles and extends the index without touching element data.
//
// Typed reads go through the generic helpers TryGet, Select and All. The
// requested Go type must match the chunk's Arrow storage (int64 for Int64 and
// timestamps parsed to epoch seconds, uint32 for addresses and enum codes,
// float64, string, []byte). A mismatch is reported as a *TypeError.
//
//	col := columnar.FromSlice(mem, []int64{1, 3, 3, 5})
//	v, ok, err := columnar.TryGet[int64](col, 2) // 3, true, nil
//
// # Dictionaries
//
// A Dictionary maps strings to a code and a sighting count. Codes are handed
// out in first-seen order starting at 1. Dictionaries are safe for concurrent
// use: several materializers may encode batches against the same dictionary.
//
// # Memory
//
// Chunks are reference counted. A column owns one reference to each chunk and
// drops them in Release. Columns built with the Go allocator may simply be
// left to the garbage collector.
package columnar
