package services

import "sort"

// orderedCounter counts keys and remembers their first-seen order, so
// rankings break ties the way the rows arrived.
type orderedCounter[K comparable] struct {
	keys   []K
	counts map[K]int
}

func newOrderedCounter[K comparable]() *orderedCounter[K] {
	return &orderedCounter[K]{counts: make(map[K]int)}
}

func (c *orderedCounter[K]) add(k K, n int) {
	if _, ok := c.counts[k]; !ok {
		c.keys = append(c.keys, k)
	}
	c.counts[k] += n
}

func (c *orderedCounter[K]) count(k K) int {
	return c.counts[k]
}

// ranked returns the keys by count, highest first
func (c *orderedCounter[K]) ranked() []K {
	out := make([]K, len(c.keys))
	copy(out, c.keys)
	sort.SliceStable(out, func(i, j int) bool {
		return c.counts[out[i]] > c.counts[out[j]]
	})
	return out
}
