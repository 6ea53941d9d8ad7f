package index

import (
	"sync"
	"testing"

	"github.com/appsage/appsage/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleUnset(t *testing.T) {
	h := NewHandle(nil)

	_, err := h.Search([]float32{1, 0}, 5)
	assert.ErrorIs(t, err, ErrEmptyIndex)
	assert.Equal(t, 0, h.Size())
	assert.Equal(t, 0, h.Dimension())
}

func TestHandleSwap(t *testing.T) {
	first, err := New([]Entry{{ID: 1, Position: 0, Vector: []float32{1, 0}}})
	require.NoError(t, err)

	h := NewHandle(first)
	assert.Equal(t, 1, h.Size())

	matches, err := h.Search([]float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, core.ID(1), matches[0].ID)

	second, err := New([]Entry{
		{ID: 2, Position: 0, Vector: []float32{0, 1}},
		{ID: 3, Position: 1, Vector: []float32{1, 0}},
	})
	require.NoError(t, err)

	h.Swap(second)
	assert.Equal(t, 2, h.Size())

	matches, err = h.Search([]float32{0, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, core.ID(2), matches[0].ID)
}

func TestHandleConcurrentSwap(t *testing.T) {
	a, err := New([]Entry{{ID: 1, Position: 0, Vector: []float32{1, 0}}})
	require.NoError(t, err)
	b, err := New([]Entry{{ID: 2, Position: 0, Vector: []float32{1, 0}}})
	require.NoError(t, err)

	h := NewHandle(a)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				matches, err := h.Search([]float32{1, 0}, 1)
				if err != nil {
					t.Error(err)
					return
				}
				// Every reader sees a complete index, old or new.
				id := matches[0].ID
				if id != 1 && id != 2 {
					t.Errorf("unexpected match %d", id)
					return
				}
			}
		}()
	}

	for range 100 {
		h.Swap(a)
		h.Swap(b)
	}
	wg.Wait()
}
