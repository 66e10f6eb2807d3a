package engine

import "sync"

// Record kinds.
const (
	RecordSpawned    = "spawned"
	RecordDied       = "died"
	RecordDeparted   = "departed"
	RecordGoalChange = "goal_change"
)

// Record is a lifecycle event: something observable happened to an agent.
type Record struct {
	Tick    uint64 `json:"tick" db:"tick" csv:"tick"`
	Kind    string `json:"kind" db:"kind" csv:"kind"`
	AgentID uint64 `json:"agent_id" db:"agent_id" csv:"agent_id"`
	Name    string `json:"name" db:"name" csv:"name"`
	Species string `json:"species" db:"species" csv:"species"`
	Detail  string `json:"detail,omitempty" db:"detail" csv:"detail"`
}

// Recorder keeps a bounded ring of recent records and fans them out to
// subscribers. Safe for concurrent use: the tick goroutine appends while
// API handlers read and stream.
type Recorder struct {
	mu    sync.Mutex
	ring  []Record
	max   int
	subs  map[chan Record]struct{}
	total uint64
}

func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = 1024
	}
	return &Recorder{
		max:  max,
		subs: make(map[chan Record]struct{}),
	}
}

// Append stores a record and notifies subscribers. Slow subscribers are
// skipped rather than blocking the tick.
func (rc *Recorder) Append(r Record) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.total++
	rc.ring = append(rc.ring, r)
	if len(rc.ring) > rc.max {
		rc.ring = rc.ring[len(rc.ring)-rc.max:]
	}
	for ch := range rc.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// Recent returns up to n of the latest records, newest last.
func (rc *Recorder) Recent(n int) []Record {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if n <= 0 || n > len(rc.ring) {
		n = len(rc.ring)
	}
	out := make([]Record, n)
	copy(out, rc.ring[len(rc.ring)-n:])
	return out
}

// RecentSince returns the records appended after a previous Total mark,
// oldest first, capped to what the ring still holds, along with the new
// mark. Callers persisting incrementally use the returned mark as the next
// cursor; records trimmed out of the ring before a call are gone.
func (rc *Recorder) RecentSince(mark uint64) ([]Record, uint64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if mark > rc.total {
		mark = rc.total
	}
	n := int(rc.total - mark)
	if n > len(rc.ring) {
		n = len(rc.ring)
	}
	out := make([]Record, n)
	copy(out, rc.ring[len(rc.ring)-n:])
	return out, rc.total
}

// Total returns the count of all records ever appended.
func (rc *Recorder) Total() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.total
}

// Subscribe registers a listener channel. The returned cancel func must be
// called when the listener is done.
func (rc *Recorder) Subscribe() (<-chan Record, func()) {
	ch := make(chan Record, 256)
	rc.mu.Lock()
	rc.subs[ch] = struct{}{}
	rc.mu.Unlock()

	cancel := func() {
		rc.mu.Lock()
		delete(rc.subs, ch)
		rc.mu.Unlock()
	}
	return ch, cancel
}
