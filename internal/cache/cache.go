// Package cache stores rendered listing pages keyed by namespace, viewer class and filter.
package cache

import (
	"context"
	"strconv"
	"strings"
)

// A Cache stores opaque values grouped by namespace.
// Keys are built with Key and always start with their namespace.
type Cache interface {
	// Get returns the value stored for the given key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the value for the given key.
	Set(ctx context.Context, key string, value []byte) error
	// Flush removes all the keys of the given namespace and starts a new generation.
	Flush(ctx context.Context, namespace string) error
	// Generation returns the current generation of the given namespace.
	// A value computed before a Flush must be stored under the generation read before computing it.
	Generation(ctx context.Context, namespace string) (uint64, error)
}

// Namespaces used by the listings.
const (
	NamespaceProducts = "products"
	NamespaceBlog     = "blog"
)

// Key builds a cache key for the given namespace and parts.
func Key(namespace string, parts ...string) string {
	return strings.Join(append([]string{namespace}, parts...), ":")
}

// GenerationKey builds a cache key scoped to a generation of the namespace.
func GenerationKey(namespace string, generation uint64, parts ...string) string {
	return Key(namespace, append([]string{"g" + strconv.FormatUint(generation, 10)}, parts...)...)
}

// Nop is a Cache that never stores anything.
type Nop struct{}

// Get implements Cache.
func (Nop) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set implements Cache.
func (Nop) Set(context.Context, string, []byte) error {
	return nil
}

// Flush implements Cache.
func (Nop) Flush(context.Context, string) error {
	return nil
}

// Generation implements Cache.
func (Nop) Generation(context.Context, string) (uint64, error) {
	return 0, nil
}
