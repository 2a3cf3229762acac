package store

import "github.com/containerwarden/warden/internal/domain"

func (s *Store) loadConfig() error {
	var doc configDoc
	ok, err := readJSON(s.path(configFile), &doc)
	if err != nil {
		return err
	}
	if !ok {
		s.policy = defaultPolicyConfig()
		s.history = map[string]*domain.RestartHistory{}
		return s.writeAtomic(configFile, configDoc{Version: schemaVersion, Policy: s.policy, History: nil})
	}
	s.policy = doc.Policy
	if doc.History != nil {
		s.history = doc.History
	}
	return nil
}

func (s *Store) loadQuarantine() error {
	var doc quarantineDoc
	ok, err := readJSON(s.path(quarantineFile), &doc)
	if err != nil {
		return err
	}
	if !ok {
		return s.writeAtomic(quarantineFile, quarantineDoc{Version: schemaVersion, Set: s.quarantine})
	}
	if doc.Set != nil {
		s.quarantine = doc.Set
	}
	return nil
}

func (s *Store) loadEvents() error {
	var doc eventsDoc
	ok, err := readJSON(s.path(eventsFile), &doc)
	if err != nil {
		return err
	}
	if !ok {
		return s.writeAtomic(eventsFile, eventsDoc{Version: schemaVersion, Events: nil})
	}
	s.events = doc.Events
	return nil
}

func (s *Store) loadMaintenance() error {
	var doc maintenanceDoc
	ok, err := readJSON(s.path(maintenanceFile), &doc)
	if err != nil {
		return err
	}
	if !ok {
		return s.writeAtomic(maintenanceFile, maintenanceDoc{Version: schemaVersion, Flag: s.maintenance})
	}
	s.maintenance = doc.Flag
	return nil
}
