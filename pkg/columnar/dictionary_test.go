package columnar

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryObserve(t *testing.T) {
	d := NewDictionary()
	assert.Equal(t, uint32(1), d.Observe("t1"))
	assert.Equal(t, uint32(2), d.Observe("t2"))
	assert.Equal(t, uint32(1), d.Observe("t1"))
	assert.Equal(t, uint32(1), d.Observe("t1"))

	e, ok := d.Lookup("t1")
	require.True(t, ok)
	assert.Equal(t, Entry{Code: 1, Count: 3}, e)
	e, _ = d.Lookup("t2")
	assert.Equal(t, Entry{Code: 2, Count: 1}, e)

	assert.Equal(t, NotFound, d.Code("t3"))
	assert.Equal(t, 2, d.Len())
}

func TestDictionaryPreloaded(t *testing.T) {
	d := NewDictionaryFrom(map[string]Entry{
		"t1": {Code: 1},
		"t2": {Code: 2},
		"t3": {Code: 7},
	})
	assert.Equal(t, uint32(7), d.Observe("t3"))
	assert.Equal(t, uint32(8), d.Observe("t4"))

	e, _ := d.Lookup("t3")
	assert.Equal(t, 1, e.Count)

	// Sequentially a fresh string gets len(map)+1 when codes are dense.
	dense := NewDictionaryFrom(map[string]Entry{"a": {Code: 1}, "b": {Code: 2}})
	assert.Equal(t, uint32(3), dense.Observe("c"))
}

func TestDictionaryReverse(t *testing.T) {
	d := NewDictionaryFrom(map[string]Entry{"x": {Code: 4}, "w": {Code: 4}, "y": {Code: 5}})
	rev := d.Reverse()
	assert.Equal(t, []string{"w", "x"}, rev[4])
	assert.Equal(t, []string{"y"}, rev[5])

	snap := d.Snapshot()
	assert.Len(t, snap, 3)
}

func TestDictionaryConcurrentObserve(t *testing.T) {
	d := NewDictionary()
	const workers = 8
	const keys = 50
	const rounds = 20

	var wg sync.WaitGroup
	codes := make([]map[string]uint32, workers)
	for w := 0; w < workers; w++ {
		codes[w] = make(map[string]uint32)
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				for k := 0; k < keys; k++ {
					key := fmt.Sprintf("k%d", (k+w)%keys)
					codes[w][key] = d.Observe(key)
				}
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, keys, d.Len())
	seen := make(map[uint32]string)
	for key, e := range d.Snapshot() {
		assert.Equal(t, workers*rounds, e.Count, key)
		assert.GreaterOrEqual(t, e.Code, uint32(1))
		assert.LessOrEqual(t, e.Code, uint32(keys))
		prev, dup := seen[e.Code]
		assert.False(t, dup, "code %d shared by %s and %s", e.Code, prev, key)
		seen[e.Code] = key
		for w := 0; w < workers; w++ {
			assert.Equal(t, e.Code, codes[w][key])
		}
	}
}

func TestEnumMaps(t *testing.T) {
	var nilMaps *EnumMaps
	_, ok := nilMaps.Get(0)
	assert.False(t, ok)

	m := NewEnumMaps()
	_, ok = m.Get(5)
	assert.False(t, ok)

	d := m.GetOrCreate(5)
	assert.Same(t, d, m.GetOrCreate(5))
	d.Observe("t2")

	m.Set(1, NewDictionaryFrom(map[string]Entry{"t1": {Code: 1}}))
	assert.Equal(t, []int{1, 5}, m.Columns())

	rev := m.Reverse()
	assert.Equal(t, []string{"t2"}, rev[5][1])
	assert.Equal(t, []string{"t1"}, rev[1][1])
}
