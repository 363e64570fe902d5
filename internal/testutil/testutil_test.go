package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock(t *testing.T) {
	c := NewDeterministicClock(time.Time{})
	assert.Equal(t, DefaultEpoch, c.Now())
	assert.Equal(t, c.Now(), c.Now())

	c.Advance(24 * time.Hour)
	assert.Equal(t, DefaultEpoch.Add(24*time.Hour), c.Now())

	c.Reset()
	assert.Equal(t, DefaultEpoch, c.Now())
}

func TestFixedIDs_Sequence(t *testing.T) {
	g := NewFixedIDs("", "inventory", "blog")

	assert.Equal(t, "inventory", g.Generate())
	assert.Equal(t, "blog", g.Generate())
	assert.Equal(t, "p-3", g.Generate())
	assert.Equal(t, "p-4", g.Generate())
}

func TestFixedIDs_Concurrent(t *testing.T) {
	g := NewFixedIDs("x")

	var wg sync.WaitGroup
	seen := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- g.Generate()
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[string]bool{}
	for id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, 100)
}
