package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/containerwarden/warden/internal/domain"
	"github.com/containerwarden/warden/internal/storeerr"
)

// GetConfig returns an immutable snapshot of the current policy config.
func (s *Store) GetConfig() domain.PolicyConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotPolicy()
}

// PutRestartPolicy validates and persists a new Restart Policy section.
// A policy that would make quarantine unreachable is rejected before any
// write is attempted, per the PolicyViolation error kind.
func (s *Store) PutRestartPolicy(p domain.RestartPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	monitorInterval := float64(s.policy.Monitor.IntervalSeconds)
	if err := p.Validate(monitorInterval); err != nil {
		return fmt.Errorf("%w: %v", storeerr.ErrPolicyViolation, err)
	}

	prev := s.policy
	s.policy.Restart = p
	if err := s.persistConfigLocked(); err != nil {
		s.policy = prev
		s.appendErrorEventLocked("", "failed to persist restart policy: "+err.Error())
		return err
	}
	return nil
}

// PutMonitorPolicy persists a new Monitor Policy section.
func (s *Store) PutMonitorPolicy(m domain.MonitorPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.policy.Restart.Validate(float64(m.IntervalSeconds)); err != nil {
		return fmt.Errorf("%w: new monitor interval makes existing restart policy unreachable: %v", storeerr.ErrPolicyViolation, err)
	}

	prev := s.policy
	s.policy.Monitor = m
	if err := s.persistConfigLocked(); err != nil {
		s.policy = prev
		s.appendErrorEventLocked("", "failed to persist monitor policy: "+err.Error())
		return err
	}
	return nil
}

// PutUptimeConfig persists a new Uptime Integration section.
func (s *Store) PutUptimeConfig(u domain.UptimeConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.policy
	s.policy.Uptime = u
	if err := s.persistConfigLocked(); err != nil {
		s.policy = prev
		s.appendErrorEventLocked("", "failed to persist uptime config: "+err.Error())
		return err
	}
	return nil
}

// PutObservabilityConfig persists a new Observability section.
func (s *Store) PutObservabilityConfig(o domain.ObservabilityConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.policy
	s.policy.Observability = o
	if err := s.persistConfigLocked(); err != nil {
		s.policy = prev
		s.appendErrorEventLocked("", "failed to persist observability config: "+err.Error())
		return err
	}
	return nil
}

// Select adds stableID to the monitored set's explicit selection,
// idempotent if already present. Used by manual operator selection and
// by the Event Listener's label-based auto-enroll on container start.
func (s *Store) Select(stableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy.Monitor.Selected[stableID] {
		return nil
	}

	prev := s.policy
	if s.policy.Monitor.Selected == nil {
		s.policy.Monitor.Selected = map[string]bool{}
	}
	s.policy.Monitor.Selected[stableID] = true

	if err := s.persistConfigLocked(); err != nil {
		s.policy = prev
		s.appendErrorEventLocked(stableID, "failed to persist monitor selection: "+err.Error())
		return err
	}
	return nil
}

// Deselect removes stableID from the monitored set's explicit selection.
func (s *Store) Deselect(stableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.policy.Monitor.Selected[stableID] {
		return nil
	}

	prev := s.policy
	delete(s.policy.Monitor.Selected, stableID)

	if err := s.persistConfigLocked(); err != nil {
		s.policy = prev
		s.appendErrorEventLocked(stableID, "failed to persist monitor deselection: "+err.Error())
		return err
	}
	return nil
}

func (s *Store) persistConfigLocked() error {
	return s.writeAtomic(configFile, configDoc{Version: schemaVersion, Policy: s.policy, History: s.history})
}

// RecordRestart appends a restart timestamp for stableID. Only the
// Restart Executor (C5) calls this — the monitor loop never mutates
// restart records directly.
func (s *Store) RecordRestart(stableID string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.history[stableID]
	if !ok {
		h = &domain.RestartHistory{}
		s.history[stableID] = h
	}
	prevTimestamps := append([]time.Time(nil), h.Timestamps...)
	prevOverflow := h.Overflow

	h.Timestamps = append(h.Timestamps, t)

	if err := s.persistConfigLocked(); err != nil {
		h.Timestamps = prevTimestamps
		h.Overflow = prevOverflow
		s.appendErrorEventLocked(stableID, "failed to record restart: "+err.Error())
		return err
	}
	return nil
}

// ClearRestartHistory purges stableID's restart record. Used by the
// explicit operator purge escape hatch and by quarantine removal, which
// per the spec also clears the id's restart record.
func (s *Store) ClearRestartHistory(stableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.history[stableID]
	delete(s.history, stableID)

	if err := s.persistConfigLocked(); err != nil {
		if existed {
			s.history[stableID] = prev
		}
		s.appendErrorEventLocked(stableID, "failed to clear restart history: "+err.Error())
		return err
	}
	return nil
}

// CountRecent returns the number of restarts for stableID within window
// of now, per the spec's "t > now-window" membership rule.
func (s *Store) CountRecent(stableID string, window time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.history[stableID]
	if !ok {
		return 0
	}
	return h.CountRecent(window, now)
}

// CountTotal returns the all-time restart count for stableID.
func (s *Store) CountTotal(stableID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.history[stableID]
	if !ok {
		return 0
	}
	return h.TotalCount()
}

// MostRecentRestart returns the latest restart timestamp for stableID,
// or the zero Time if none exist.
func (s *Store) MostRecentRestart(stableID string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.history[stableID]
	if !ok {
		return time.Time{}
	}
	return h.MostRecent()
}

// Quarantine bars stableID from automatic restart.
func (s *Store) Quarantine(stableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setQuarantineLocked(stableID, true)
}

// Unquarantine clears stableID's quarantine and, per the spec, also
// clears its restart record.
func (s *Store) Unquarantine(stableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setQuarantineLocked(stableID, false); err != nil {
		return err
	}

	prevHistory, existed := s.history[stableID]
	delete(s.history, stableID)
	if err := s.persistConfigLocked(); err != nil {
		if existed {
			s.history[stableID] = prevHistory
		}
		s.appendErrorEventLocked(stableID, "failed to clear history on unquarantine: "+err.Error())
		return err
	}
	return nil
}

func (s *Store) setQuarantineLocked(stableID string, quarantined bool) error {
	prev, existed := s.quarantine[stableID]
	if quarantined {
		s.quarantine[stableID] = true
	} else {
		delete(s.quarantine, stableID)
	}

	if err := s.writeAtomic(quarantineFile, quarantineDoc{Version: schemaVersion, Set: s.quarantine}); err != nil {
		if existed {
			s.quarantine[stableID] = prev
		} else {
			delete(s.quarantine, stableID)
		}
		s.appendErrorEventLocked(stableID, "failed to persist quarantine state: "+err.Error())
		return err
	}
	return nil
}

// IsQuarantined reports whether stableID is currently barred from
// automatic restart.
func (s *Store) IsQuarantined(stableID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quarantine[stableID]
}

// AppendEvent appends e (assigning an ID/timestamp if unset) to the
// bounded event ring, evicting the oldest entry once capacity is
// reached.
func (s *Store) AppendEvent(e domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendEventLocked(e)
}

func (s *Store) appendEventLocked(e domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	prev := s.events
	s.events = appendRing(s.events, e, s.ringSize)

	if err := s.writeAtomic(eventsFile, eventsDoc{Version: schemaVersion, Events: s.events}); err != nil {
		s.events = prev
		return err
	}

	if s.onEvent != nil {
		go s.onEvent(e)
	}
	return nil
}

// RecentEvents returns up to n most recent events, newest last (monotonic
// in timestamp per the Event ordering invariant).
func (s *Store) RecentEvents(n int) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	out := make([]domain.Event, n)
	copy(out, s.events[len(s.events)-n:])
	return out
}

// ClearEvents empties the event ring.
func (s *Store) ClearEvents() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.events
	s.events = nil
	if err := s.writeAtomic(eventsFile, eventsDoc{Version: schemaVersion, Events: nil}); err != nil {
		s.events = prev
		return err
	}
	return nil
}

// SetMaintenance toggles the global maintenance suppression flag.
func (s *Store) SetMaintenance(active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.maintenance
	s.maintenance.Active = active
	if active {
		now := time.Now().UTC()
		s.maintenance.ActivatedAt = &now
	} else {
		s.maintenance.ActivatedAt = nil
	}

	if err := s.writeAtomic(maintenanceFile, maintenanceDoc{Version: schemaVersion, Flag: s.maintenance}); err != nil {
		s.maintenance = prev
		s.appendErrorEventLocked("", "failed to persist maintenance flag: "+err.Error())
		return err
	}
	return nil
}

// GetMaintenance returns the current maintenance flag state.
func (s *Store) GetMaintenance() domain.MaintenanceFlag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maintenance
}
