package tuner

import (
	"errors"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrComputeFirstWins(t *testing.T) {
	c := NewCache[string]()
	key := Key{Path: "/models/a.safetensors", Function: "loader"}

	var calls int
	first := func() (string, error) { calls++; return "first", nil }
	second := func() (string, error) { calls++; return "second", nil }

	v, err := c.GetOrCompute(key, first)
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	v, err = c.GetOrCompute(key, second)
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.Equal(t, 1, calls)
}

func TestGetOrComputeConcurrent(t *testing.T) {
	c := NewCache[int]()
	key := Key{Path: "/models/a.safetensors"}

	var calls, entered atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entered.Add(1)
			v, err := c.GetOrCompute(key, func() (int, error) {
				if calls.Add(1) == 1 {
					close(started)
				}
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	// erste Berechnung blockiert, bis alle Aufrufer in GetOrCompute stecken
	<-started
	require.Eventually(t, func() bool { return entered.Load() == int32(len(results)) }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestClearDuringCompute(t *testing.T) {
	c := NewCache[int]()
	key := Key{Path: "/models/a.safetensors"}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int)
	go func() {
		v, err := c.GetOrCompute(key, func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		assert.NoError(t, err)
		done <- v
	}()

	<-started
	c.Clear()
	close(release)

	// der Aufrufer bekommt sein Ergebnis, gespeichert wird es nicht
	assert.Equal(t, 1, <-done)
	assert.Zero(t, c.Len())

	v, err := c.GetOrCompute(key, func() (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c := NewCache[int]()
	key := Key{Path: "/models/a.safetensors"}
	boom := errors.New("boom")

	_, err := c.GetOrCompute(key, func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	v, err := c.GetOrCompute(key, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCacheKeysAreDistinct(t *testing.T) {
	c := NewCache[string]()

	a, _ := c.GetOrCompute(Key{Path: "/m", Function: "a"}, func() (string, error) { return "a", nil })
	b, _ := c.GetOrCompute(Key{Path: "/m", Function: "b"}, func() (string, error) { return "b", nil })

	assert.Equal(t, "a", a)
	assert.Equal(t, "b", b)
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
	_, ok := c.Get(Key{Path: "/m", Function: "a"})
	assert.False(t, ok)
}

func TestSeqCache(t *testing.T) {
	c := NewSeqCache[int]()
	key := Key{Path: "/models"}

	var produced int
	produce := func() iter.Seq[int] {
		produced++
		return slices.Values([]int{1, 2, 3})
	}

	seq := c.Seq(key, produce)
	assert.Zero(t, produced, "produce must be lazy")

	// abgebrochen: nichts gespeichert
	for v := range seq {
		if v == 2 {
			break
		}
	}
	assert.Equal(t, 1, produced)
	assert.Zero(t, c.Len())

	assert.Equal(t, []int{1, 2, 3}, slices.Collect(c.Seq(key, produce)))
	assert.Equal(t, 2, produced)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, []int{1, 2, 3}, slices.Collect(c.Seq(key, produce)))
	assert.Equal(t, 2, produced)

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestSeqCacheClearDuringIteration(t *testing.T) {
	c := NewSeqCache[int]()
	key := Key{Path: "/models"}

	var got []int
	for v := range c.Seq(key, func() iter.Seq[int] { return slices.Values([]int{1, 2}) }) {
		got = append(got, v)
		c.Clear()
	}

	assert.Equal(t, []int{1, 2}, got)
	assert.Zero(t, c.Len())
}
