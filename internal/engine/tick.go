// Package engine drives the simulation: one logical tick that walks every
// agent in deterministic id order, with fixed phase ordering inside the tick
// so no agent ever acts on a half-updated field.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Runner paces the simulation loop in wall-clock time. The tick itself is
// pure; the runner only decides when to call it. The loop runs on its own
// goroutine while API handlers and the signal handler read the counter and
// adjust speed, so those fields are atomics.
type Runner struct {
	tick    atomic.Uint64
	speed   atomic.Uint64 // float64 bits; 1.0 = real-time, 0 = paused
	running atomic.Bool

	Interval time.Duration // base tick interval

	// Callbacks for each schedule layer.
	OnTick func(tick uint64)
	OnHour func(tick uint64)
	OnDay  func(tick uint64)

	TicksPerHour uint64
	TicksPerDay  uint64
}

// NewRunner creates a runner with the given schedule.
func NewRunner(ticksPerHour, ticksPerDay uint64, interval time.Duration) *Runner {
	r := &Runner{
		Interval:     interval,
		TicksPerHour: ticksPerHour,
		TicksPerDay:  ticksPerDay,
	}
	r.SetSpeed(1.0)
	return r
}

// Tick returns the current tick counter.
func (r *Runner) Tick() uint64 {
	return r.tick.Load()
}

// Speed returns the current speed multiplier.
func (r *Runner) Speed() float64 {
	return math.Float64frombits(r.speed.Load())
}

// SetSpeed changes the speed multiplier; zero pauses the loop.
func (r *Runner) SetSpeed(v float64) {
	r.speed.Store(math.Float64bits(v))
}

// Running reports whether the loop is active.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run starts the loop. Blocks until Stop is called.
func (r *Runner) Run() {
	r.running.Store(true)
	slog.Info("simulation started", "tick", r.Tick(), "speed", r.Speed())

	for r.running.Load() {
		speed := r.Speed()
		if speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		r.Step()

		elapsed := time.Since(start)
		target := time.Duration(float64(r.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation stopped", "tick", r.Tick())
}

// Step advances exactly one tick. Tests call this directly to run the
// simulation as fast as the CPU allows.
func (r *Runner) Step() {
	now := r.tick.Add(1)

	if r.OnTick != nil {
		r.OnTick(now)
	}
	if r.TicksPerHour > 0 && now%r.TicksPerHour == 0 && r.OnHour != nil {
		r.OnHour(now)
	}
	if r.TicksPerDay > 0 && now%r.TicksPerDay == 0 && r.OnDay != nil {
		r.OnDay(now)
	}
}

// Stop halts the loop after the current tick.
func (r *Runner) Stop() {
	r.running.Store(false)
}

// SimTime renders a tick count as "Day N, HH:MM" given the day schedule.
func SimTime(tick, ticksPerHour, ticksPerDay uint64) string {
	if ticksPerHour == 0 || ticksPerDay == 0 {
		return fmt.Sprintf("tick %d", tick)
	}
	day := tick/ticksPerDay + 1
	hour := (tick % ticksPerDay) / ticksPerHour
	min := tick % ticksPerHour
	return fmt.Sprintf("Day %d, %02d:%02d", day, hour, min)
}
