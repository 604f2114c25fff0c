package redis

import (
	"sync/atomic"
)

// ClientStats contains statistics about client operations.
// All fields are safe for concurrent access.
//
// For Prometheus integration, see package metrics, which exposes these as:
//   - Counters: Commands, Gets, Sets, Deletes, Reconnects, Errors
//   - Counter: GetHits (derive hit rate as GetHits/Gets)
type ClientStats struct {
	Commands   uint64 // Total commands sent, including raw Do calls
	Gets       uint64 // Total read operations (GET, HGET, HGETALL, LPOP, generic get)
	GetHits    uint64 // Read operations that found a value
	Sets       uint64 // Total write operations (SET, HSET, LPUSH, EXPIRE)
	Deletes    uint64 // Total DEL operations
	Reconnects uint64 // Successful reconnects
	Errors     uint64 // Total errors across all operations
	_          uint64 // Padding to align to 64 bytes
}

// clientStatsCollector provides internal methods for updating client stats.
// Not exported - client updates its own stats.
type clientStatsCollector struct {
	stats *ClientStats
}

func newClientStatsCollector() *clientStatsCollector {
	return &clientStatsCollector{
		stats: &ClientStats{},
	}
}

func (c *clientStatsCollector) recordCommand() {
	atomic.AddUint64(&c.stats.Commands, 1)
}

func (c *clientStatsCollector) recordGet(found bool) {
	atomic.AddUint64(&c.stats.Gets, 1)
	if found {
		atomic.AddUint64(&c.stats.GetHits, 1)
	}
}

func (c *clientStatsCollector) recordSet() {
	atomic.AddUint64(&c.stats.Sets, 1)
}

func (c *clientStatsCollector) recordDelete() {
	atomic.AddUint64(&c.stats.Deletes, 1)
}

func (c *clientStatsCollector) recordReconnect() {
	atomic.AddUint64(&c.stats.Reconnects, 1)
}

func (c *clientStatsCollector) recordError() {
	atomic.AddUint64(&c.stats.Errors, 1)
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Commands:   atomic.LoadUint64(&c.stats.Commands),
		Gets:       atomic.LoadUint64(&c.stats.Gets),
		GetHits:    atomic.LoadUint64(&c.stats.GetHits),
		Sets:       atomic.LoadUint64(&c.stats.Sets),
		Deletes:    atomic.LoadUint64(&c.stats.Deletes),
		Reconnects: atomic.LoadUint64(&c.stats.Reconnects),
		Errors:     atomic.LoadUint64(&c.stats.Errors),
	}
}
