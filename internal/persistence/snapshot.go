package persistence

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/ferune/wildmere/internal/engine"
)

// Snapshot is a full portable export of a run at one tick: world, agents,
// stats, and the recent record tail. Written as zstd-compressed JSON.
type Snapshot struct {
	RunID   string             `json:"run_id"`
	Tick    uint64             `json:"tick"`
	World   engine.WorldView   `json:"world"`
	Agents  []engine.AgentView `json:"agents"`
	Stats   engine.Stats       `json:"stats"`
	Records []engine.Record    `json:"records"`
}

// ExportSnapshot writes a compressed snapshot of the simulation to path.
func ExportSnapshot(path, runID string, sim *engine.Sim, tick uint64) error {
	snap := Snapshot{
		RunID:   runID,
		Tick:    tick,
		World:   sim.SnapshotWorld(),
		Agents:  sim.SnapshotAgents(),
		Stats:   sim.Stats(tick),
		Records: sim.Records.Recent(1024),
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("init compressor: %w", err)
	}

	if err := json.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return zw.Close()
}

// ImportSnapshot reads a compressed snapshot back from path.
func ImportSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("init decompressor: %w", err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
