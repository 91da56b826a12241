package auth

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	locks := newKeyedMutex()
	counters := map[string]int{"a": 0, "b": 0}
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, key := range []string{"a", "b"} {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				unlock := locks.Lock(key)
				defer unlock()

				mu.Lock()
				current := counters[key]
				mu.Unlock()

				mu.Lock()
				counters[key] = current + 1
				mu.Unlock()
			}(key)
		}
	}
	wg.Wait()

	require.Equal(t, 50, counters["a"])
	require.Equal(t, 50, counters["b"])
	require.Empty(t, locks.locks)
}
