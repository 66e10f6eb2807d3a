// Goal records — tagged units of intended behavior with urgency and timeout.
// Targets are held by id or position, never by pointer: the referent may die
// between ticks and is re-resolved on every read.
package agent

import "github.com/ferune/wildmere/internal/world"

// GoalKind enumerates the shared goal vocabulary. Rule-based selection and
// cognition-provider intents both map onto this set.
type GoalKind uint8

const (
	GoalIdle GoalKind = iota
	GoalSeekFood
	GoalFleeThreat
	GoalFight
	GoalSeekSocial
	GoalExplore
	GoalSeekMate
	GoalDefendTerritory
	GoalTrade
	GoalRaid
	GoalPreach
	GoalScoutLand
	GoalNegotiate
	GoalDepart

	NumGoalKinds
)

var goalNames = [NumGoalKinds]string{
	"idle", "seek-food", "flee-threat", "fight", "seek-social",
	"explore", "seek-mate", "defend-territory", "trade", "raid",
	"preach", "scout", "negotiate", "depart",
}

// Name returns a stable label for logs and the API.
func (k GoalKind) Name() string {
	if int(k) < len(goalNames) {
		return goalNames[k]
	}
	return "unknown"
}

// GoalKindByName resolves a label back to a kind. Used when mapping
// cognition-provider intents onto the goal vocabulary.
func GoalKindByName(name string) (GoalKind, bool) {
	for i, n := range goalNames {
		if n == name {
			return GoalKind(i), true
		}
	}
	return 0, false
}

// Goal is a unit of intended behavior. Created at a decision boundary or by
// a priority override; replaced when complete, invalid, or timed out.
type Goal struct {
	Kind        GoalKind   `json:"kind"`
	TargetAgent AgentID    `json:"target_agent,omitempty"` // 0 = none
	TargetPos   *world.Pos `json:"target_pos,omitempty"`
	Urgency     float64    `json:"urgency"`
	Issued      uint64     `json:"issued"`
	Deadline    uint64     `json:"deadline"` // tick after which the goal times out

	// Advised marks goals seeded by the cognition provider; they passed the
	// same validation as rule-based goals before being applied.
	Advised bool `json:"advised,omitempty"`

	// Movement bookkeeping: best distance reached toward the target and how
	// many ticks since it last improved. A long stall triggers the bounded
	// path search fallback.
	BestDist int    `json:"-"`
	Stall    uint16 `json:"-"`
}

// TimedOut reports whether the goal has exceeded its deadline.
func (g *Goal) TimedOut(now uint64) bool {
	return g.Deadline != 0 && now > g.Deadline
}

// HasTarget reports whether the goal names any target at all.
func (g *Goal) HasTarget() bool {
	return g.TargetAgent != 0 || g.TargetPos != nil
}
