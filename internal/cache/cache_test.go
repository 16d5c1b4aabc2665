package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/search"
)

func results(titles ...string) []search.Result {
	out := make([]search.Result, 0, len(titles))
	for _, t := range titles {
		out = append(out, search.Result{Title: t, URL: "https://example.com/" + t, Source: "file"})
	}
	return out
}

func TestResponseCache_GetSet(t *testing.T) {
	c := New(Options{})
	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", results("a", "b"))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, results("a", "b"), got)
}

func TestResponseCache_EmptyResultIsAHit(t *testing.T) {
	c := New(Options{})
	c.Set("k", nil)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestResponseCache_StoredValueIsIsolated(t *testing.T) {
	c := New(Options{})
	in := results("a")
	c.Set("k", in)
	in[0].Title = "mutated"

	got, _ := c.Get("k")
	assert.Equal(t, "a", got[0].Title)
	got[0].Title = "mutated again"
	again, _ := c.Get("k")
	assert.Equal(t, "a", again[0].Title)
}

func TestResponseCache_TTLExpiry(t *testing.T) {
	c := New(Options{TTL: 40 * time.Millisecond})
	c.Set("k", results("a"))
	_, ok := c.Get("k")
	require.True(t, ok)
	time.Sleep(80 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "expired entry must be absent")
}

func TestResponseCache_LRUEviction(t *testing.T) {
	c := New(Options{MaxEntries: 2})
	c.Set("a", results("a"))
	c.Set("b", results("b"))
	// touch a so b becomes least recently used
	_, _ = c.Get("a")
	c.Set("c", results("c"))

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB, "least recently used entry should be evicted")
	assert.True(t, okC)
	assert.Equal(t, 2, c.Len())
}

func TestResponseCache_Reset(t *testing.T) {
	c := New(Options{})
	c.Set("a", results("a"))
	c.Reset()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestResponseCache_ConcurrentWriters(t *testing.T) {
	c := New(Options{MaxEntries: 50})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, results(fmt.Sprint(i)))
				if got, ok := c.Get(key); ok {
					assert.Len(t, got, 1)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}

func TestKey_NormalizesTextAndProviderOrder(t *testing.T) {
	a := Key("  OSPF   Areas ", 5, []string{"cse", "wikipedia"})
	b := Key("ospf areas", 5, []string{"wikipedia", "CSE"})
	assert.Equal(t, a, b)
	assert.Equal(t, "q=ospf+areas|l=5|s=cse,wikipedia", a)

	assert.NotEqual(t, a, Key("ospf areas", 6, []string{"cse", "wikipedia"}))
	assert.NotEqual(t, a, Key("ospf areas", 5, []string{"cse"}))
}

func TestKey_SeparatorsInInputDoNotCollide(t *testing.T) {
	a := Key("ab|l=1|s=x", 5, []string{"wikipedia"})
	b := Key("ab", 1, []string{"x|l=5|s=wikipedia"})
	assert.NotEqual(t, a, b)

	c := Key("q", 5, []string{"a,b"})
	d := Key("q", 5, []string{"a", "b"})
	assert.NotEqual(t, c, d)
}
