// Package baseline persists per-scenario reference scores so later runs can
// be compared against an earlier adapter or model.
//
// Each (adapter, model, scenario) key owns exactly one record file beneath
// the store directory; saving to an occupied key replaces the old record, so
// a key always reflects the most recent recording.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/harrison/gauntlet/internal/filelock"
	"github.com/harrison/gauntlet/internal/models"
)

// WarnLogger receives non-fatal store warnings, such as corrupt records
// being skipped.
type WarnLogger interface {
	Warnf(format string, args ...interface{})
}

// Store reads and writes baseline records beneath a root directory.
type Store struct {
	// Dir is the directory records live under. It is created on first Save.
	Dir string
	// Log receives warnings about records that exist but cannot be decoded.
	// A nil Log silences them.
	Log WarnLogger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) warnf(format string, args ...interface{}) {
	if s.Log != nil {
		s.Log.Warnf(format, args...)
	}
}

func (s *Store) recordPath(adapter, model, scenarioID string) string {
	return filepath.Join(s.Dir, sanitizeKey(adapter), sanitizeKey(model), sanitizeKey(scenarioID)+".json")
}

// sanitizeKey makes a key component safe to use as a path segment.
func sanitizeKey(s string) string {
	if s == "" {
		return "default"
	}
	return strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(s)
}

// Save writes rec into its key, replacing any earlier record for the same
// adapter, model, and scenario. A zero timestamp is set to the current time.
func (s *Store) Save(rec *models.BaselineRecord) error {
	if rec == nil {
		return fmt.Errorf("baseline record is nil")
	}
	if rec.ScenarioID == "" {
		return fmt.Errorf("baseline record has no scenario id")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode baseline record: %w", err)
	}

	path := s.recordPath(rec.Adapter, rec.Model, rec.ScenarioID)
	if err := filelock.LockAndWrite(path, data); err != nil {
		return fmt.Errorf("failed to save baseline for %s: %w", rec.ScenarioID, err)
	}
	return nil
}

// Load returns the record stored for the key, or nil when none exists. A
// record that exists but cannot be decoded is treated as missing and
// reported through Log; only genuine I/O failures return an error.
func (s *Store) Load(adapter, model, scenarioID string) (*models.BaselineRecord, error) {
	path := s.recordPath(adapter, model, scenarioID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read baseline %s: %w", path, err)
	}

	var rec models.BaselineRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.warnf("ignoring corrupt baseline %s: %v", path, err)
		return nil, nil
	}
	return &rec, nil
}

// Compare loads the key's record and compares score against it. It returns
// nil when no baseline has been recorded.
func (s *Store) Compare(adapter, model, scenarioID string, score float64) (*models.BaselineComparison, error) {
	rec, err := s.Load(adapter, model, scenarioID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return rec.Compare(score), nil
}

// List returns all stored records, narrowed by adapter and model when those
// are non-empty. Records are ordered by adapter, model, then scenario.
func (s *Store) List(adapter, model string) ([]*models.BaselineRecord, error) {
	adapterDirs, err := subdirs(s.Dir)
	if err != nil {
		return nil, err
	}

	var records []*models.BaselineRecord
	for _, adapterDir := range adapterDirs {
		if adapter != "" && adapterDir != sanitizeKey(adapter) {
			continue
		}
		modelDirs, err := subdirs(filepath.Join(s.Dir, adapterDir))
		if err != nil {
			return nil, err
		}
		for _, modelDir := range modelDirs {
			if model != "" && modelDir != sanitizeKey(model) {
				continue
			}
			dir := filepath.Join(s.Dir, adapterDir, modelDir)
			entries, err := os.ReadDir(dir)
			if err != nil {
				return nil, fmt.Errorf("failed to read baseline directory %s: %w", dir, err)
			}
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
					continue
				}
				path := filepath.Join(dir, entry.Name())
				data, err := os.ReadFile(path)
				if err != nil {
					return nil, fmt.Errorf("failed to read baseline %s: %w", path, err)
				}
				var rec models.BaselineRecord
				if err := json.Unmarshal(data, &rec); err != nil {
					s.warnf("ignoring corrupt baseline %s: %v", path, err)
					continue
				}
				records = append(records, &rec)
			}
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Adapter != records[j].Adapter {
			return records[i].Adapter < records[j].Adapter
		}
		if records[i].Model != records[j].Model {
			return records[i].Model < records[j].Model
		}
		return records[i].ScenarioID < records[j].ScenarioID
	})
	return records, nil
}

// Delete removes the record for the key. Deleting a key that holds no
// record is not an error.
func (s *Store) Delete(adapter, model, scenarioID string) error {
	path := s.recordPath(adapter, model, scenarioID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	lockPath := path + ".lock"
	lock := filelock.New(lockPath)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() {
		lock.Unlock()
		os.Remove(lockPath)
	}()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete baseline %s: %w", path, err)
	}
	return nil
}

// Clear removes every record beneath the given filters: all records when
// both are empty, one adapter's records, or one adapter and model pair's.
func (s *Store) Clear(adapter, model string) error {
	if adapter == "" && model != "" {
		return fmt.Errorf("adapter is required when clearing by model")
	}

	dir := s.Dir
	switch {
	case adapter == "":
	case model == "":
		dir = filepath.Join(s.Dir, sanitizeKey(adapter))
	default:
		dir = filepath.Join(s.Dir, sanitizeKey(adapter), sanitizeKey(model))
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear baselines under %s: %w", dir, err)
	}
	return nil
}

// RecordFor builds the record a finished evaluation would occupy its key
// with.
func RecordFor(adapter, model string, result *models.EvaluationResult) *models.BaselineRecord {
	return &models.BaselineRecord{
		ScenarioID: result.Scenario.ID,
		Adapter:    adapter,
		Model:      model,
		Score:      result.Score,
		Violations: len(result.Violations),
		Timestamp:  time.Now().UTC(),
	}
}

// subdirs lists the directory names under dir, or nothing when dir does
// not exist yet.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read baseline directory %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
