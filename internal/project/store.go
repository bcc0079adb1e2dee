// Package project persists editing sessions as JSON files. Saves are
// atomic: the file is written beside the target and renamed into place,
// so a crash never leaves a half-written project.
package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// FormatVersion is written into every saved project. Older files are
// still readable; unknown fields in newer files are ignored.
const FormatVersion = 1

// File is the on-disk project document.
type File struct {
	Version  int               `json:"version"`
	Name     string            `json:"name,omitempty"`
	SavedAt  time.Time         `json:"saved_at"`
	Timeline timeline.Snapshot `json:"timeline"`
	Assets   []*library.Asset  `json:"assets,omitempty"`
}

type Store struct {
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Save writes a project file atomically.
func (s *Store) Save(path string, file *File) error {
	file.Version = FormatVersion
	file.SavedAt = time.Now()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode project: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create project directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("cannot write project file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot finalise project file: %w", err)
	}

	s.logger.Info("project saved", "path", filepath.Base(path), "clips", len(file.Timeline.Clips))
	return nil
}

// Load reads a project file. Files saved without tracks get the default
// two; the timeline controller re-clamps everything else on restore.
func (s *Store) Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read project file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("cannot parse project file: %w", err)
	}

	if file.Version > FormatVersion {
		s.logger.Warn("project saved by a newer version", "found", file.Version, "supported", FormatVersion)
	}

	if len(file.Timeline.Tracks) == 0 {
		file.Timeline.Tracks = timeline.DefaultTracks()
	}

	s.logger.Info("project loaded", "path", filepath.Base(path), "clips", len(file.Timeline.Clips))
	return &file, nil
}

// List returns saved project filenames under dir, newest first.
func (s *Store) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type named struct {
		name string
		mod  time.Time
	}
	var files []named
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, named{name: entry.Name(), mod: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].mod.After(files[j].mod)
	})

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.name)
	}
	return names, nil
}
