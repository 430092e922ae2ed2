// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are spread over a power-of-two number of shards with murmur3, each
// guarded by its own RWMutex. blueis uses it for the connected client
// table and the per-host rate limiter registry.
//
//	m := cmap.New[string, *Conn]()
//	m.Set(c.ID, c)
//	c, ok := m.Get(id)
//
// Range locks one shard at a time, so it does not observe a consistent
// snapshot of the whole map.
package cmap
