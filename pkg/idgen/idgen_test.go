package idgen

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_StrictlyIncreasing(t *testing.T) {
	g := New()
	prev := g.NewID()
	for i := 0; i < 1000; i++ {
		next := g.NewID()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestNewID_ConcurrentUnique(t *testing.T) {
	g := New()
	var (
		mu  sync.Mutex
		ids = make([]string, 0, 800)
		wg  sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := g.NewID()
				mu.Lock()
				ids = append(ids, id)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Strings(ids)
	for i := 1; i < len(ids); i++ {
		assert.NotEqual(t, ids[i-1], ids[i])
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(New().NewID()))
	assert.False(t, Valid(""))
	assert.False(t, Valid("8"))
	assert.False(t, Valid("not-a-ulid-at-all-nope-nope"))
}
