// Package store implements the Durable Store (C3): single-writer,
// many-reader persistence of configuration, restart history, the
// quarantine set, the event ring, and the maintenance flag. Each logical
// table is an independent on-disk artifact written atomically
// (write-to-temp, fsync, rename), grounded on the
// FilePersistence/VersionedPersistence pattern used elsewhere in the
// retrieved pack for disk-backed state that must never be left
// half-written. This is a deliberate departure from the teacher
// codebase's gorm/SQL persistence layer: the spec's own wording
// ("independent artifact written atomically... write-to-temp, fsync,
// rename") names a file-based design a relational store cannot express
// directly, so a different pack repo's file-persistence idiom is the
// grounding source here instead.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/containerwarden/warden/internal/domain"
	"github.com/containerwarden/warden/internal/storeerr"
)

const (
	configFile      = "config.json"
	quarantineFile  = "quarantine.json"
	eventsFile      = "events.json"
	maintenanceFile = "maintenance.json"

	schemaVersion = 1

	// DefaultEventRingSize is N in the spec's "bounded ring of N >= 500".
	DefaultEventRingSize = 500
)

type configDoc struct {
	Version int                                `json:"version"`
	Policy  domain.PolicyConfig                `json:"policy"`
	History map[string]*domain.RestartHistory  `json:"history"`
}

type quarantineDoc struct {
	Version int             `json:"version"`
	Set     map[string]bool `json:"set"`
}

type eventsDoc struct {
	Version int            `json:"version"`
	Events  []domain.Event `json:"events"`
}

type maintenanceDoc struct {
	Version int                   `json:"version"`
	Flag    domain.MaintenanceFlag `json:"flag"`
}

// Store is the single writer for all durable engine state. Callers
// obtain read snapshots (deep copies) so they never observe a
// partially-applied mutation and never hold the writer lock themselves.
type Store struct {
	mu       sync.Mutex
	dataDir  string
	filePerm os.FileMode
	dirPerm  os.FileMode
	ringSize int

	policy      domain.PolicyConfig
	history     map[string]*domain.RestartHistory
	quarantine  map[string]bool
	events      []domain.Event
	maintenance domain.MaintenanceFlag

	onEvent func(domain.Event)
}

// SetEventHook registers fn to be invoked, on a best-effort
// fire-and-forget basis, every time an event is durably appended. This
// is how the notification/metrics sinks (C9) observe the same event
// stream the store appends to without the store importing them.
func (s *Store) SetEventHook(fn func(domain.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = fn
}

// Open loads existing artifacts from dataDir, creating it and seeding
// defaults for any artifact that doesn't exist yet.
func Open(dataDir string, filePerm, dirPerm os.FileMode) (*Store, error) {
	if err := os.MkdirAll(dataDir, dirPerm); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	s := &Store{
		dataDir:    dataDir,
		filePerm:   filePerm,
		dirPerm:    dirPerm,
		ringSize:   DefaultEventRingSize,
		history:    make(map[string]*domain.RestartHistory),
		quarantine: make(map[string]bool),
	}

	if err := s.loadConfig(); err != nil {
		return nil, err
	}
	if err := s.loadQuarantine(); err != nil {
		return nil, err
	}
	if err := s.loadEvents(); err != nil {
		return nil, err
	}
	if err := s.loadMaintenance(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// writeAtomic marshals v as indented JSON and commits it via
// write-to-temp + fsync + rename, so a crash mid-write never leaves a
// corrupt artifact in place of the previous good one.
func (s *Store) writeAtomic(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", storeerr.ErrIO, name, err)
	}

	target := s.path(name)
	tmp, err := os.CreateTemp(s.dataDir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", storeerr.ErrIO, name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %v", storeerr.ErrIO, name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: fsync %s: %v", storeerr.ErrIO, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close %s: %v", storeerr.ErrIO, name, err)
	}
	if err := os.Chmod(tmpPath, s.filePerm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: chmod %s: %v", storeerr.ErrIO, name, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename %s: %v", storeerr.ErrIO, name, err)
	}
	return nil
}

func readJSON(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", storeerr.ErrIO, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: unmarshal %s: %v", storeerr.ErrIO, path, err)
	}
	return true, nil
}

// appendErrorEventLocked is the best-effort degraded-mode event append used
// when a write itself has just failed — per the spec, the store records
// an error event on write failure on a best-effort basis without
// re-entering the same failed write path.
func (s *Store) appendErrorEventLocked(stableID, message string) {
	e := domain.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		StableID:  stableID,
		Name:      "store",
		Type:      domain.EventHealthCheckFailed,
		Status:    domain.StatusFailure,
		Message:   message,
	}
	s.events = appendRing(s.events, e, s.ringSize)
	_ = s.writeAtomic(eventsFile, eventsDoc{Version: schemaVersion, Events: s.events})
}

func appendRing(ring []domain.Event, e domain.Event, max int) []domain.Event {
	ring = append(ring, e)
	if len(ring) > max {
		ring = ring[len(ring)-max:]
	}
	return ring
}

// snapshotPolicy returns a deep copy of the current policy config so
// readers cannot observe or mutate the store's live state.
func (s *Store) snapshotPolicy() domain.PolicyConfig {
	var out domain.PolicyConfig
	if err := copier.CopyWithOption(&out, &s.policy, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on structurally incompatible types, which
		// cannot happen here since src and dst share the same type.
		out = s.policy
	}
	return out
}
