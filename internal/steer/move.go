package steer

import (
	"math"
	"math/rand"

	"github.com/ferune/wildmere/internal/config"
	"github.com/ferune/wildmere/internal/world"
)

// Inputs are the force components composed into one movement vector.
// Callers precompute each as a direction (unit or near-unit); the weights
// come from config.
type Inputs struct {
	Momentum Vec // previous movement direction (inertia)
	Target   Vec // direct attraction toward an explicit goal target
	Gradient Vec // scent gradient at the agent's tile
	Social   Vec // attraction/repulsion toward nearby agents
}

// Compose builds the weighted movement vector. The exploration bias pushes
// against recent momentum to discourage straight-line loitering, and a small
// uniform noise term breaks ties — it is never the dominant component.
func Compose(in Inputs, w config.MovementConfig, rng *rand.Rand) Vec {
	v := in.Momentum.Scale(w.MomentumWeight)
	v = v.Add(in.Target.Scale(w.TargetWeight))
	v = v.Add(in.Gradient.Scale(w.ScentWeight))
	v = v.Add(in.Social.Scale(w.SocialWeight))

	explore := in.Momentum.Norm().Scale(-1)
	v = v.Add(explore.Scale(w.ExploreWeight))

	angle := rng.Float64() * 2 * math.Pi
	noise := Vec{math.Cos(angle), math.Sin(angle)}
	v = v.Add(noise.Scale(w.NoiseWeight))

	return v.Norm()
}

// StepResult is the discrete outcome of one movement tick.
type StepResult struct {
	Step  world.Pos // chosen offset; zero when staying
	Moved bool
	Stuck bool // every neighbor impassable — boxed in, not an error
}

// ChooseStep converts the desire vector into a tile step by scoring the nine
// candidates (eight neighbors plus stay) against the vector's direction,
// a small prefer-moving bonus, and a tiny random term. The highest-scoring
// passable candidate wins; a zero desire vector keeps the agent in place.
func ChooseStep(g *world.Grid, pos world.Pos, desire Vec, w config.MovementConfig, rng *rand.Rand) StepResult {
	anyPassable := false
	var best world.Pos
	bestScore := math.Inf(-1)

	for _, d := range world.NeighborDirections {
		cand := world.Pos{X: pos.X + d.X, Y: pos.Y + d.Y}
		if !g.Passable(cand) {
			continue
		}
		anyPassable = true
		if desire.IsZero() {
			continue
		}

		dir := Vec{float64(d.X), float64(d.Y)}.Norm()
		// Map alignment into [0,1] so the move bonus always lifts a legal
		// move above staying put, even dead against the desire vector.
		score := (1+dir.Dot(desire))/2 + w.MoveBonus + rng.Float64()*0.01
		if score > bestScore {
			best = d
			bestScore = score
		}
	}

	if !anyPassable {
		return StepResult{Stuck: true}
	}
	if desire.IsZero() || math.IsInf(bestScore, -1) {
		return StepResult{}
	}
	return StepResult{Step: best, Moved: true}
}

// UpdateMomentum blends the chosen step into the agent's momentum as an
// exponential moving average so turns smooth out over a few ticks.
func UpdateMomentum(prev Vec, step world.Pos, blend float64) Vec {
	chosen := Vec{float64(step.X), float64(step.Y)}.Norm()
	return chosen.Scale(blend).Add(prev.Scale(1 - blend))
}

// TowardTile returns the unit direction from a tile toward a target tile.
func TowardTile(from, to world.Pos) Vec {
	return Vec{float64(to.X - from.X), float64(to.Y - from.Y)}.Norm()
}
