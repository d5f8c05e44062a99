package memory

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestResolveRoundTrip(t *testing.T) {
	c := New(Options{})
	c.Record("open calculator", "calculator", "")

	target, ok := c.Resolve("close it")
	require.True(t, ok)
	assert.Equal(t, "calculator", target)
}

func TestResolveWithoutPronoun(t *testing.T) {
	c := New(Options{})
	c.Record("open calculator", "calculator", "")

	_, ok := c.Resolve("open chrome")
	assert.False(t, ok)
}

func TestResolveWithoutTarget(t *testing.T) {
	c := New(Options{})
	c.Record("what time is it", "", "")

	_, ok := c.Resolve("close it")
	assert.False(t, ok)
}

func TestResolveThemUsesLastTarget(t *testing.T) {
	c := New(Options{})
	c.Record("open spotify", "spotify", "")

	target, ok := c.Resolve("close THEM")
	require.True(t, ok)
	assert.Equal(t, "spotify", target)
}

func TestResolveTokenizedIgnoresEmbeddedPronoun(t *testing.T) {
	c := New(Options{})
	c.Record("open firefox", "firefox", "")

	_, ok := c.Resolve("play with kittens")
	assert.False(t, ok, "tokenized scan must not match 'it' inside 'with'")

	legacy := New(Options{Legacy: true})
	legacy.Record("open firefox", "firefox", "")

	target, ok := legacy.Resolve("play with kittens")
	require.True(t, ok)
	assert.Equal(t, "firefox", target)
}

func TestRecordOverwritesAllSlots(t *testing.T) {
	c := New(Options{})
	c.Record("open chrome", "google-chrome", "")
	c.Record("open spotify", "spotify", "")

	for _, slot := range []string{RefIt, RefThat, RefThis, RefLastTarget} {
		assert.Equal(t, "spotify", c.Reference(slot), slot)
	}

	c.Record("what time is it", "", "ten")
	assert.Equal(t, "spotify", c.Reference(RefIt), "untargeted records keep the referent")
}

func TestCapacityEvictsOldest(t *testing.T) {
	const n = 4
	c := New(Options{Capacity: n, Now: fixedClock()})

	for i := 0; i <= n; i++ {
		c.Record(fmt.Sprintf("cmd %d", i), "", "")
	}

	recent := c.Recent()
	require.Len(t, recent, n)

	var got []string
	for _, r := range recent {
		got = append(got, r.Command)
	}
	want := []string{"cmd 1", "cmd 2", "cmd 3", "cmd 4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("log mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultCapacity(t *testing.T) {
	c := New(Options{})
	for i := 0; i < 20; i++ {
		c.Record("hello", "", "")
	}
	assert.Len(t, c.Recent(), DefaultCapacity)
}

func TestClearKeepsFrequency(t *testing.T) {
	c := New(Options{})
	c.Record("Open Calculator", "calculator", "")
	c.Record("open calculator", "calculator", "")

	c.Clear()

	assert.Empty(t, c.Recent())
	_, ok := c.Resolve("close it")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Frequency("OPEN CALCULATOR"))
}

func TestFrequencyKeyTruncated(t *testing.T) {
	c := New(Options{})
	long := "search for a very long query that keeps going well past the fifty character limit"
	c.Record(long, "", "")
	c.Record(long+" with a different tail", "", "")

	assert.Equal(t, 2, c.Frequency(long))
}

func TestFrequencyKeyCountsCharacters(t *testing.T) {
	c := New(Options{})
	base := strings.Repeat("я", 40)

	c.Record(base+strings.Repeat("б", 20), "", "")
	c.Record(base+strings.Repeat("б", 10)+strings.Repeat("в", 10), "", "")
	c.Record(strings.Repeat("я", 30)+strings.Repeat("ж", 30), "", "")

	assert.Equal(t, 2, c.Frequency(base+strings.Repeat("б", 15)))
	assert.Equal(t, 1, c.Frequency(strings.Repeat("я", 30)+strings.Repeat("ж", 30)))

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.frequent {
		assert.True(t, utf8.ValidString(key), key)
		assert.Equal(t, freqKeyLimit, utf8.RuneCountInString(key))
	}
}

func TestAppStatsOnlyForOpen(t *testing.T) {
	clock := fixedClock()
	c := New(Options{Now: clock})

	c.Record("open Calculator", "Calculator", "")
	c.Record("open calculator", "calculator", "")
	c.Record("close calculator", "calculator", "")
	c.Record("reopen calculator", "calculator", "")

	st, ok := c.AppStats("calculator")
	require.True(t, ok)
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, clock(), st.LastOpened)

	_, ok = c.AppStats("chrome")
	assert.False(t, ok)
}

func TestConcurrentRecord(t *testing.T) {
	c := New(Options{Capacity: 16})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record("open app", fmt.Sprintf("app-%d", i), "")
				c.Resolve("close it")
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, c.Recent(), 16)
	assert.Equal(t, 800, c.Frequency("open app"))
}
