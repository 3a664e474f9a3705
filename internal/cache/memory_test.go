package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory(16, 0)
	require.NoError(t, err)

	_, ok, err := c.Get(ctx, Key(NamespaceProducts, "anonymous", "1"))
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, Key(NamespaceProducts, "anonymous", "1"), []byte("page1")))
	require.NoError(t, c.Set(ctx, Key(NamespaceBlog, "public", "1"), []byte("blog1")))

	v, ok, err := c.Get(ctx, Key(NamespaceProducts, "anonymous", "1"))
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "page1", string(v))

	require.NoError(t, c.Flush(ctx, NamespaceProducts))

	_, ok, _ = c.Get(ctx, Key(NamespaceProducts, "anonymous", "1"))
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, Key(NamespaceBlog, "public", "1"))
	assert.True(t, ok)
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory(16, time.Minute)
	require.NoError(t, err)

	now := time.Now()
	m := c.(*memory)
	m.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "blog:public:1", []byte("v")))
	_, ok, _ := c.Get(ctx, "blog:public:1")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "blog:public:1")
	assert.False(t, ok)
}

func TestMemoryInvalidSize(t *testing.T) {
	_, err := NewMemory(0, 0)
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "products:user:42:c1:3", Key(NamespaceProducts, "user", "42", "c1", "3"))
	assert.Equal(t, "products", namespaceOf("products:user:42"))
	assert.Equal(t, "blog", namespaceOf("blog"))
	assert.Equal(t, "products:g3:anonymous:1", GenerationKey(NamespaceProducts, 3, "anonymous", "1"))
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}

	require.NoError(t, c.Set(ctx, "blog:public:1", []byte("v")))
	_, ok, err := c.Get(ctx, "blog:public:1")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Flush(ctx, NamespaceBlog))

	gen, err := c.Generation(ctx, NamespaceBlog)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), gen)
}

func TestMemoryGeneration(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory(16, 0)
	require.NoError(t, err)

	gen, err := c.Generation(ctx, NamespaceProducts)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), gen)

	require.NoError(t, c.Flush(ctx, NamespaceProducts))
	require.NoError(t, c.Flush(ctx, NamespaceProducts))

	gen, err = c.Generation(ctx, NamespaceProducts)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), gen)

	gen, err = c.Generation(ctx, NamespaceBlog)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), gen)

	// A value stored under a previous generation is never read again.
	stale := GenerationKey(NamespaceProducts, 1, "anonymous", "1")
	require.NoError(t, c.Set(ctx, stale, []byte("page1")))
	_, ok, _ := c.Get(ctx, GenerationKey(NamespaceProducts, 2, "anonymous", "1"))
	assert.False(t, ok)
}
