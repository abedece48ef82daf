package ogevent

import (
	"fmt"
	"hash/maphash"
	"sort"
	"strings"

	"github.com/aristanetworks/gomap"
)

// TypeStats accounts events of one type.
type TypeStats struct {
	Type         EventType
	Count        int
	PayloadBytes int64
}

// Stats accumulates per-type event counts and payload sizes of a pickle stream.
//
// The zero value is not usable; use NewStats or Summarize.
type Stats struct {
	Events       int
	PayloadBytes int64

	m *gomap.Map[EventType, TypeStats]
}

// NewStats returns empty Stats.
func NewStats() *Stats {
	return &Stats{m: gomap.NewHint[EventType, TypeStats](16, equalType, hashType)}
}

// Summarize returns Stats of events.
func Summarize(events []Event) *Stats {
	s := NewStats()
	for _, ev := range events {
		s.Add(ev)
	}
	return s
}

// Add accounts ev.
func (s *Stats) Add(ev Event) {
	n := int64(ev.PayloadLen())
	s.Events++
	s.PayloadBytes += n

	ts, _ := s.m.Get(ev.Type)
	ts.Type = ev.Type
	ts.Count++
	ts.PayloadBytes += n
	s.m.Set(ev.Type, ts)
}

// Get returns statistics of events of type t.
func (s *Stats) Get(t EventType) TypeStats {
	ts, ok := s.m.Get(t)
	if !ok {
		return TypeStats{Type: t}
	}
	return ts
}

// Types returns statistics for all seen event types, most frequent first.
func (s *Stats) Types() []TypeStats {
	tv := make([]TypeStats, 0, s.m.Len())
	for it := s.m.Iter(); it.Next(); {
		tv = append(tv, it.Elem())
	}
	sort.Slice(tv, func(i, j int) bool {
		if tv[i].Count != tv[j].Count {
			return tv[i].Count > tv[j].Count
		}
		return tv[i].Type < tv[j].Type
	})
	return tv
}

func (s *Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d events, %d payload bytes\n", s.Events, s.PayloadBytes)
	for _, ts := range s.Types() {
		fmt.Fprintf(&b, "%-16s %8d %10d\n", ts.Type, ts.Count, ts.PayloadBytes)
	}
	return b.String()
}

func equalType(a, b EventType) bool {
	return a == b
}

func hashType(seed maphash.Seed, t EventType) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteByte(byte(t))
	return h.Sum64()
}
