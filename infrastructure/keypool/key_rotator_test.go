package keypool_test

import (
	"sync"
	"testing"

	"playlist-service/infrastructure/keypool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyRotator_EmptyPool(t *testing.T) {
	r, err := keypool.NewKeyRotator(nil)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, keypool.ErrEmptyKeyPool)
}

func TestKeyRotator_RoundRobin(t *testing.T) {
	r, err := keypool.NewKeyRotator([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	got := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		got = append(got, r.Next())
	}
	assert.Equal(t, []string{"k1", "k2", "k3", "k1", "k2", "k3", "k1"}, got)
	assert.Equal(t, 1, r.Cursor())
	assert.Equal(t, 3, r.Len())
}

func TestKeyRotator_SingleKey(t *testing.T) {
	r, err := keypool.NewKeyRotator([]string{"only"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.Equal(t, "only", r.Next())
	}
	assert.Equal(t, 0, r.Cursor())
}

func TestKeyRotator_ConcurrentFairness(t *testing.T) {
	keys := []string{"a", "b", "c", "d"}
	r, err := keypool.NewKeyRotator(keys)
	require.NoError(t, err)

	const perWorker = 250
	const workers = 8
	var mu sync.Mutex
	counts := map[string]int{}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := map[string]int{}
			for i := 0; i < perWorker; i++ {
				local[r.Next()]++
			}
			mu.Lock()
			for k, v := range local {
				counts[k] += v
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, k := range keys {
		assert.Equal(t, perWorker*workers/len(keys), counts[k], k)
	}
	assert.Equal(t, 0, r.Cursor())
}

func TestNewKeyRotator_CopiesInput(t *testing.T) {
	keys := []string{"k1", "k2"}
	r, err := keypool.NewKeyRotator(keys)
	require.NoError(t, err)
	keys[0] = "mutated"
	assert.Equal(t, "k1", r.Next())
}
