package session

import (
	"sort"
	"time"
)

// EvictionPolicy decides which idle sessions the manager drops
type EvictionPolicy interface {
	Evict(sessions map[string]*Session, now time.Time) []string
}

// NoEviction keeps every session for the life of the process
type NoEviction struct{}

func (NoEviction) Evict(map[string]*Session, time.Time) []string { return nil }

// TTL evicts sessions that have not been accessed within MaxIdle
type TTL struct {
	MaxIdle time.Duration
}

func (p TTL) Evict(sessions map[string]*Session, now time.Time) []string {
	var ids []string
	for id, s := range sessions {
		if now.Sub(s.lastAccess) > p.MaxIdle {
			ids = append(ids, id)
		}
	}
	return ids
}

// LRU keeps at most Max sessions, evicting the least recently accessed
type LRU struct {
	Max int
}

func (p LRU) Evict(sessions map[string]*Session, _ time.Time) []string {
	if p.Max <= 0 || len(sessions) <= p.Max {
		return nil
	}
	all := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].lastAccess.Before(all[j].lastAccess)
	})
	ids := make([]string, 0, len(all)-p.Max)
	for _, s := range all[:len(all)-p.Max] {
		ids = append(ids, s.ID)
	}
	return ids
}

// PolicyByName maps a configuration value to an eviction policy
func PolicyByName(name string, ttl time.Duration, maxSessions int) EvictionPolicy {
	switch name {
	case "ttl":
		return TTL{MaxIdle: ttl}
	case "lru":
		return LRU{Max: maxSessions}
	default:
		return NoEviction{}
	}
}
