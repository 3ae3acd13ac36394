package repository

// Option applies a configuration option to the ListingCache.
type Option func(*ListingCache)

// WithInitialCapacity presizes the cache, typically to the film count.
func WithInitialCapacity(n int) Option {
	return func(c *ListingCache) {
		if n > 0 {
			c.initialCapacity = n
		}
	}
}
