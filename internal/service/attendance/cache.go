package attendance

import (
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
)

type snapshot struct {
	records   []attendance.Record
	seq       uint64
	fetchedAt time.Time
}

// recordCache holds aggregated records per punch query. Every fetch takes a
// sequence number from begin; commit drops results older than the stored
// snapshot or started before the last invalidation.
type recordCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	seq     uint64
	floor   uint64
	entries map[string]snapshot
}

func newRecordCache(ttl time.Duration) *recordCache {
	return &recordCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]snapshot),
	}
}

func (c *recordCache) get(key string) ([]attendance.Record, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.entries[key]
	if !ok || c.now().Sub(snap.fetchedAt) >= c.ttl {
		return nil, false
	}
	return snap.records, true
}

func (c *recordCache) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	return c.seq
}

// commit stores records fetched under seq and reports whether they were kept.
func (c *recordCache) commit(key string, seq uint64, records []attendance.Record) bool {
	if c.ttl <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.floor {
		return false
	}
	if current, ok := c.entries[key]; ok && current.seq > seq {
		return false
	}
	c.entries[key] = snapshot{records: records, seq: seq, fetchedAt: c.now()}
	return true
}

// invalidate drops every snapshot and rejects commits from fetches already in
// flight.
func (c *recordCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.floor = c.seq
	c.entries = make(map[string]snapshot)
}
