// Package history keeps a record of finished runs in <config-dir>/history.yml.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Record is one followed job after it left the tracker.
type Record struct {
	JobID      string    `yaml:"job_id"`
	Kind       string    `yaml:"kind"`
	ResourceID int       `yaml:"resource_id"`
	Name       string    `yaml:"name"`
	Status     string    `yaml:"status"`
	Reason     string    `yaml:"reason"`
	Percentage int       `yaml:"percentage"`
	LaunchedAt time.Time `yaml:"launched_at"`
	FinishedAt time.Time `yaml:"finished_at"`
}

type file struct {
	Runs []Record `yaml:"runs"`
}

func path(configDir string) string {
	return filepath.Join(configDir, "history.yml")
}

// Load returns the recorded runs, most recent first.
func Load(configDir string) ([]Record, error) {
	data, err := os.ReadFile(path(configDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	sortRecent(f.Runs)
	return f.Runs, nil
}

// Append adds records to the history and keeps at most limit of the most recent ones.
// A limit of zero or less keeps everything.
func Append(configDir string, records []Record, limit int) error {
	if len(records) == 0 {
		return nil
	}

	existing, err := Load(configDir)
	if err != nil {
		return err
	}
	runs := append(existing, records...)
	sortRecent(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(file{Runs: runs})
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return os.WriteFile(path(configDir), data, 0o644)
}

func sortRecent(runs []Record) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].FinishedAt.After(runs[j].FinishedAt)
	})
}
