// Rolling event memory — a short bounded record of notable experiences.
// Feeds the cognition-provider context for speaking agents. Oldest entries
// are evicted first when the buffer fills.
package agent

import (
	"sort"

	"github.com/ferune/wildmere/internal/world"
)

// MemoryKind tags what sort of experience was recorded.
type MemoryKind uint8

const (
	MemorySighting MemoryKind = iota // saw a relevant agent
	MemoryThreat                     // fled or fought
	MemoryMeal                       // ate
	MemorySocial                     // socialized
	MemoryArrival                    // entered the map
)

// MemoryEvent is one remembered experience.
type MemoryEvent struct {
	Tick       uint64     `json:"tick"`
	Kind       MemoryKind `json:"kind"`
	Subject    AgentID    `json:"subject,omitempty"`
	Pos        world.Pos  `json:"pos"`
	Importance float64    `json:"importance"` // 0–1
}

// Remember appends an event to the agent's memory. When full, the oldest
// entry is dropped to make room.
func Remember(a *Agent, ev MemoryEvent, limit int) {
	if limit <= 0 {
		return
	}
	if len(a.Memory) >= limit {
		copy(a.Memory, a.Memory[1:])
		a.Memory[len(a.Memory)-1] = ev
		return
	}
	a.Memory = append(a.Memory, ev)
}

// RecentMemories returns up to count memories ordered by tick descending.
func RecentMemories(a *Agent, count int) []MemoryEvent {
	if len(a.Memory) == 0 {
		return nil
	}
	sorted := make([]MemoryEvent, len(a.Memory))
	copy(sorted, a.Memory)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Tick > sorted[j].Tick
	})
	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}

// ImportantMemories returns the top count memories by importance.
func ImportantMemories(a *Agent, count int) []MemoryEvent {
	if len(a.Memory) == 0 {
		return nil
	}
	sorted := make([]MemoryEvent, len(a.Memory))
	copy(sorted, a.Memory)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Importance > sorted[j].Importance
	})
	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}
