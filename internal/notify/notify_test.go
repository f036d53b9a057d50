package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot_PublishReplaces(t *testing.T) {
	s := New()

	_, ok := s.Current()
	assert.False(t, ok)

	s.Info("loading")
	s.Error("boom")

	n, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, Notification{Kind: Error, Text: "boom"}, n)
}

func TestSlot_Clear(t *testing.T) {
	s := New()
	s.Success("Record added successfully!")
	v := s.Version()

	s.Clear()
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Greater(t, s.Version(), v)

	// Clearing again does not count as a change.
	v = s.Version()
	s.Clear()
	assert.Equal(t, v, s.Version())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "error", Error.String())
}

func TestSlot_Concurrent(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	const numGoroutines = 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Error("x")
			_, _ = s.Current()
			s.Clear()
		}()
	}

	wg.Wait()
	assert.GreaterOrEqual(t, s.Version(), uint64(numGoroutines))
}
