// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gridwars/engine/pkg/core"
)

// WorldExport is the root JSON structure of a snapshot
type WorldExport struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Locations  []*core.Location  `json:"locations"`
	Players    []*core.Player    `json:"players"`
	Features   []*core.Feature   `json:"features"`
	Buildings  []*core.Building  `json:"buildings"`
	Units      []*core.Unit      `json:"units"`
	Transports []*core.Transport `json:"transports"`
	Skills     []*core.Skill     `json:"skills"`
}

// Snapshot returns every stored record ordered by ID.
func (b *Backend) Snapshot() WorldExport {
	return WorldExport{
		ExportedAt: time.Now(),
		Locations:  b.locations.all(),
		Players:    b.players.all(),
		Features:   b.features.all(),
		Buildings:  b.buildings.all(),
		Units:      b.units.all(),
		Transports: b.transport.all(),
		Skills:     b.skills.all(),
	}
}

// WriteSnapshot encodes the current snapshot to w.
func (b *Backend) WriteSnapshot(w io.Writer) error {
	return json.NewEncoder(w).Encode(b.Snapshot())
}

// exportJSON writes the world to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	snap := b.Snapshot()

	filename := fmt.Sprintf("world_%s.json", snap.ExportedAt.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if b.cfg.CompressOutput {
		gzWriter := gzip.NewWriter(f)
		defer gzWriter.Close()
		w = gzWriter
	}

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	b.lastExportPath = outputPath
	return nil
}
