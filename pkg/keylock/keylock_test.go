package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	l := New[int64]()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(42)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, l.Len())
}

func TestKeyLock_LockManyOverlappingSets(t *testing.T) {
	l := New[int64]()

	counters := map[int64]int{1: 0, 2: 0, 3: 0}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := l.LockMany([]int64{3, 1, 2})
			defer unlock()
			counters[1]++
			counters[3]++
		}()
		go func() {
			defer wg.Done()
			unlock := l.LockMany([]int64{2, 3, 3})
			defer unlock()
			counters[2]++
			counters[3]++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counters[1])
	assert.Equal(t, 50, counters[2])
	assert.Equal(t, 100, counters[3])
	assert.Equal(t, 0, l.Len())
}

func TestKeyLock_UnlockIsIdempotent(t *testing.T) {
	l := New[string]()

	unlock := l.Lock("slot")
	unlock()
	unlock()

	assert.Equal(t, 0, l.Len())
	l.Lock("slot")()
}
