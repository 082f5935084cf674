package runrecord

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
)

// Store persists Records under BaseDir/<YYYY>/<MM>/<DD>/<runId>.json
// using atomic temp-then-rename writes.
type Store struct {
	BaseDir string
}

// NewStore constructs a file-backed run record store.
func NewStore(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

func (s *Store) pathFor(record *Record) string {
	y := record.StartedAt.Format("2006")
	m := record.StartedAt.Format("01")
	d := record.StartedAt.Format("02")
	return filepath.Join(s.BaseDir, y, m, d, record.ID+".json")
}

// Save writes record atomically: marshal to a temp file in the target
// directory, fsync, then rename over the destination. A reader never
// observes a partial file.
func (s *Store) Save(record *Record) error {
	if record.Checksum == "" {
		record.Checksum = Checksum(record.Inputs)
	}

	dest := s.pathFor(record)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("runrecord: create directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("runrecord: marshal record: %w", err)
	}

	tmp, err := os.CreateTemp(dir, record.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("runrecord: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("runrecord: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("runrecord: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("runrecord: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("runrecord: rename into place: %w", err)
	}
	return nil
}

// Load retrieves a record by id, searching year/month/day directories.
func (s *Store) Load(id string) (*Record, error) {
	var found string
	err := filepath.WalkDir(s.BaseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Base(path) == id+".json" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("runrecord: search for %s: %w", id, err)
	}
	if found == "" {
		return nil, apperr.New(apperr.CodeUnknownRequest, "run record not found: "+id)
	}

	data, err := os.ReadFile(found)
	if err != nil {
		return nil, fmt.Errorf("runrecord: read %s: %w", found, err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("runrecord: unmarshal %s: %w", found, err)
	}
	return &record, nil
}

// List returns up to limit records starting at offset, newest-first by
// StartedAt.
func (s *Store) List(limit, offset int) ([]*Record, error) {
	var all []*Record
	err := filepath.WalkDir(s.BaseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		var record Record
		if jsonErr := json.Unmarshal(data, &record); jsonErr != nil {
			return jsonErr
		}
		all = append(all, &record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("runrecord: list: %w", err)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].StartedAt.After(all[j].StartedAt)
	})

	if offset >= len(all) {
		return []*Record{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Verify recomputes the checksum of record.Inputs and compares it against
// the stored checksum, enabling deterministic-replay verification.
func (s *Store) Verify(id string) (bool, error) {
	record, err := s.Load(id)
	if err != nil {
		return false, err
	}
	return Checksum(record.Inputs) == record.Checksum, nil
}
