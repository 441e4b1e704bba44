package cpdtrack

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// historyEntry is one (past downsampled cloud, past Y) pair in the
// template history H (§3, §4.8). seq is a monotonically increasing
// insertion counter, independent of where the entry currently sits in
// the ring buffer, so recency tie-breaks survive wraparound.
type historyEntry struct {
	ID    string
	Seq   int64
	Cloud PointCloud
	Y     []Point3
}

// templateMatcher is the template history H: a fixed-capacity ring buffer
// of past (downsampled cloud, Y) pairs, queried by approximate Chamfer
// similarity. Recovery candidates are stored by value, not by pointer
// (§9, "no cyclic ownership ... recovery templates are stored by value").
type templateMatcher struct {
	capacity int
	entries  []historyEntry
	next     int   // ring cursor, used once entries reaches capacity
	seq      int64 // next insertion sequence number
}

func newTemplateMatcher(capacity int) *templateMatcher {
	return &templateMatcher{capacity: capacity, entries: make([]historyEntry, 0, capacity)}
}

// size reports the number of templates currently held.
func (tm *templateMatcher) size() int { return len(tm.entries) }

// addTemplate appends a new (cloud, Y) pair, evicting the oldest entry
// once the matcher is at capacity.
func (tm *templateMatcher) addTemplate(cloud PointCloud, y []Point3) {
	if tm.capacity <= 0 {
		return
	}
	entry := historyEntry{
		ID:    uuid.NewString(),
		Seq:   tm.seq,
		Cloud: cloud,
		Y:     append([]Point3(nil), y...),
	}
	tm.seq++
	if len(tm.entries) < tm.capacity {
		tm.entries = append(tm.entries, entry)
		return
	}
	// Evict the oldest (ring buffer semantics); Seq, not slot position,
	// is what records insertion recency from here on.
	tm.entries[tm.next] = entry
	tm.next = (tm.next + 1) % tm.capacity
}

// queryTemplate returns the Y's of the k entries whose stored cloud is
// most similar (smallest symmetric Chamfer distance) to query. Ties are
// broken by insertion recency, i.e. entries appended later win ties,
// matching §4.8's stated tie-break.
func (tm *templateMatcher) queryTemplate(query PointCloud, k int) [][]Point3 {
	type scored struct {
		dist float64
		seq  int64 // insertion sequence number, for recency tie-break
		y    []Point3
	}
	scoredEntries := make([]scored, len(tm.entries))
	for i, e := range tm.entries {
		scoredEntries[i] = scored{
			dist: symmetricChamferDistance(query, e.Cloud),
			seq:  e.Seq,
			y:    e.Y,
		}
	}
	sort.Slice(scoredEntries, func(a, b int) bool {
		if scoredEntries[a].dist != scoredEntries[b].dist {
			return scoredEntries[a].dist < scoredEntries[b].dist
		}
		return scoredEntries[a].seq > scoredEntries[b].seq // more recent wins ties
	})
	if k > len(scoredEntries) {
		k = len(scoredEntries)
	}
	out := make([][]Point3, k)
	for i := 0; i < k; i++ {
		out[i] = scoredEntries[i].y
	}
	return out
}

// symmetricChamferDistance is the acceptable similarity metric named in
// §4.8: the mean over points of a of the squared distance to the nearest
// point of b, plus the same term from b to a. Uses gonum/stat.Mean the way
// internal/db/db.go leans on gonum/stat for small dense numeric summaries.
func symmetricChamferDistance(a, b PointCloud) float64 {
	if len(a.Points) == 0 || len(b.Points) == 0 {
		return math.MaxFloat64
	}
	return chamferOneSided(a.Points, b.Points) + chamferOneSided(b.Points, a.Points)
}

func chamferOneSided(from, to []Point3) float64 {
	nearest := make([]float64, len(from))
	for i, p := range from {
		best := math.MaxFloat64
		for _, q := range to {
			if d := p.Sub(q).Norm2(); d < best {
				best = d
			}
		}
		nearest[i] = best
	}
	return stat.Mean(nearest, nil)
}
