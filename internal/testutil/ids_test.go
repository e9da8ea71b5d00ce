package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("exec")
	assert.Equal(t, "exec-1", g.Generate())
	assert.Equal(t, "exec-2", g.Generate())
	assert.Equal(t, 2, g.Current())

	g.Reset()
	assert.Equal(t, 0, g.Current())
	assert.Equal(t, "exec-1", g.Generate())
}

func TestSequentialIDs_Concurrent(t *testing.T) {
	g := NewSequentialIDs("q")
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
	assert.Equal(t, 50, g.Current())
}
