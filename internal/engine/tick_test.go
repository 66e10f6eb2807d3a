package engine

import "testing"

func TestRunnerSchedule(t *testing.T) {
	r := NewRunner(2, 4, 0)
	var ticks, hours, days []uint64
	r.OnTick = func(tick uint64) { ticks = append(ticks, tick) }
	r.OnHour = func(tick uint64) { hours = append(hours, tick) }
	r.OnDay = func(tick uint64) { days = append(days, tick) }

	for i := 0; i < 8; i++ {
		r.Step()
	}

	if len(ticks) != 8 {
		t.Errorf("OnTick fired %d times, want 8", len(ticks))
	}
	wantHours := []uint64{2, 4, 6, 8}
	if len(hours) != len(wantHours) {
		t.Fatalf("OnHour fired at %v, want %v", hours, wantHours)
	}
	for i := range wantHours {
		if hours[i] != wantHours[i] {
			t.Errorf("OnHour[%d] = %d, want %d", i, hours[i], wantHours[i])
		}
	}
	if len(days) != 2 || days[0] != 4 || days[1] != 8 {
		t.Errorf("OnDay fired at %v, want [4 8]", days)
	}
}

func TestRunnerNilCallbacks(t *testing.T) {
	r := NewRunner(1, 1, 0)
	r.Step() // must not panic with no callbacks wired
	if r.Tick() != 1 {
		t.Errorf("tick = %d, want 1", r.Tick())
	}
}

func TestRunnerControlFromOtherGoroutines(t *testing.T) {
	r := NewRunner(2, 4, 0)
	done := make(chan struct{})
	r.OnDay = func(tick uint64) {
		if tick >= 40 {
			r.Stop()
		}
	}

	go func() {
		defer close(done)
		r.Run()
	}()

	// Concurrent speed changes and status reads, as the API handlers and
	// the signal handler do against the live loop.
	for i := 0; i < 200; i++ {
		r.SetSpeed(float64(1 + i%5))
		_ = r.Speed()
		_ = r.Tick()
		_ = r.Running()
	}
	<-done

	if r.Running() {
		t.Error("runner still marked running after Stop")
	}
	if r.Tick() < 40 {
		t.Errorf("loop stopped at tick %d, want >= 40", r.Tick())
	}
}

func TestSimTime(t *testing.T) {
	cases := []struct {
		tick uint64
		want string
	}{
		{0, "Day 1, 00:00"},
		{59, "Day 1, 00:59"},
		{60, "Day 1, 01:00"},
		{1439, "Day 1, 23:59"},
		{1440, "Day 2, 00:00"},
		{1500, "Day 2, 01:00"},
	}
	for _, c := range cases {
		if got := SimTime(c.tick, 60, 1440); got != c.want {
			t.Errorf("SimTime(%d) = %q, want %q", c.tick, got, c.want)
		}
	}
	if got := SimTime(77, 0, 0); got != "tick 77" {
		t.Errorf("degenerate schedule = %q, want plain tick", got)
	}
}
