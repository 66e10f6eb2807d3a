// Package telemetry accumulates per-interval population statistics and
// exports them as CSV for offline analysis.
package telemetry

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/engine"
)

// Row is one sampled interval: the population summary plus drive
// distribution aggregates.
type Row struct {
	Tick       uint64  `csv:"tick"`
	Agents     int     `csv:"agents"`
	Settlers   int     `csv:"settlers"`
	Animals    int     `csv:"animals"`
	Factions   int     `csv:"factions"`
	Births     uint64  `csv:"births"`
	Deaths     uint64  `csv:"deaths"`
	Departures uint64  `csv:"departures"`
	FoodScent  float64 `csv:"food_scent"`

	HungerMean float64 `csv:"hunger_mean"`
	HungerStd  float64 `csv:"hunger_std"`
	HungerP50  float64 `csv:"hunger_p50"`
	HungerP90  float64 `csv:"hunger_p90"`
	FearMean   float64 `csv:"fear_mean"`
	FearP90    float64 `csv:"fear_p90"`
}

// Collector samples a running simulation. Safe to call from the tick
// goroutine's day callback while an exporter reads from another.
type Collector struct {
	mu   sync.Mutex
	rows []Row
}

func NewCollector() *Collector {
	return &Collector{}
}

// Sample captures one row from the simulation at the given tick.
func (c *Collector) Sample(sim *engine.Sim, tick uint64) {
	st := sim.Stats(tick)
	row := Row{
		Tick:       st.Tick,
		Agents:     st.Agents,
		Settlers:   st.Settlers,
		Animals:    st.Animals,
		Factions:   st.Factions,
		Births:     st.Births,
		Deaths:     st.Deaths,
		Departures: st.Departures,
		FoodScent:  st.FoodScent,
	}

	hunger := sim.DriveValues(agent.DriveHunger)
	if len(hunger) > 0 {
		sort.Float64s(hunger)
		row.HungerMean, row.HungerStd = stat.MeanStdDev(hunger, nil)
		row.HungerP50 = stat.Quantile(0.5, stat.Empirical, hunger, nil)
		row.HungerP90 = stat.Quantile(0.9, stat.Empirical, hunger, nil)
	}
	fear := sim.DriveValues(agent.DriveFear)
	if len(fear) > 0 {
		sort.Float64s(fear)
		row.FearMean = stat.Mean(fear, nil)
		row.FearP90 = stat.Quantile(0.9, stat.Empirical, fear, nil)
	}

	c.mu.Lock()
	c.rows = append(c.rows, row)
	c.mu.Unlock()
}

// Rows returns a copy of everything sampled so far.
func (c *Collector) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// WriteCSV writes all sampled rows to path, overwriting any prior file.
func (c *Collector) WriteCSV(path string) error {
	rows := c.Rows()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create telemetry file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write telemetry csv: %w", err)
	}
	return nil
}
