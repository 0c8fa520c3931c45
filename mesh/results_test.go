package mesh

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultStorePutGet(t *testing.T) {
	s := NewResultStore()
	assert.Equal(t, 0, s.Len())

	_, ok := s.Get("p")
	assert.False(t, ok)

	s.Put(testResult("p"))
	r, ok := s.Get("p")
	require.True(t, ok)
	assert.Equal(t, "p", r.Pair)
	assert.Equal(t, 1, s.Len())

	// Latest result wins
	updated := testResult("p")
	updated.Distance = 9
	s.Put(updated)
	r, _ = s.Get("p")
	assert.Equal(t, 9.0, r.Distance)
	assert.Equal(t, 1, s.Len())
}

func TestResultStoreAllSorted(t *testing.T) {
	s := NewResultStore()
	s.Put(testResult("zeta"))
	s.Put(testResult("alpha"))
	s.Put(testResult("mid"))

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Pair)
	assert.Equal(t, "mid", all[1].Pair)
	assert.Equal(t, "zeta", all[2].Pair)
}

func TestResultStoreReturnsCopies(t *testing.T) {
	s := NewResultStore()
	s.Put(testResult("p"))

	r, _ := s.Get("p")
	r.Distance = -1

	again, _ := s.Get("p")
	assert.NotEqual(t, -1.0, again.Distance)
}

func TestResultStoreConcurrentAccess(t *testing.T) {
	s := NewResultStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Put(testResult("p"))
				s.Get("p")
				s.All()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}
