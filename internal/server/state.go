package server

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/nao1215/creditline/internal/config"
	"github.com/nao1215/creditline/internal/model"
	"github.com/nao1215/creditline/internal/pipeline"
)

// State is the metadata table and display configuration shared by every
// request. Each page request annotates with a snapshot, so updates never
// affect a response that is already being rendered.
type State struct {
	mu      sync.RWMutex
	table   model.Table
	config  model.DisplayConfig
	baseURL *url.URL
	hidden  bool
}

// NewState creates a State holding a copy of table and cfg. A nil table
// starts from the seed table.
func NewState(table model.Table, cfg model.DisplayConfig) *State {
	if table == nil {
		table = model.SeedTable()
	}
	return &State{
		table:  table.Clone(),
		config: cfg,
	}
}

// SetBaseURL fixes the base relative image sources resolve against. When
// unset, each page resolves against its own request URL.
func (s *State) SetBaseURL(base *url.URL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = base
}

// SetHidden renders every label hidden.
func (s *State) SetHidden(hidden bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden = hidden
}

// Settings returns pipeline settings for one page. pageURL is used as the
// base when no fixed base URL is set.
func (s *State) Settings(pageURL *url.URL) pipeline.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base := s.baseURL
	if base == nil {
		base = pageURL
	}
	return pipeline.Settings{
		Config:  s.config,
		Table:   s.table.Clone(),
		BaseURL: base,
		Hidden:  s.hidden,
	}
}

// Table returns a copy of the metadata table.
func (s *State) Table() model.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone()
}

// Record returns the record for id and whether the table has it.
func (s *State) Record(id string) (model.CopyrightRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.table[id]
	return rec, ok
}

// Export returns the metadata table in the export format.
func (s *State) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Export()
}

// Import merges a JSON table over the metadata table and returns the
// records read. Nothing changes when data cannot be parsed.
func (s *State) Import(data []byte) (model.Table, error) {
	t, err := model.ParseTable(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Merge(t)
	return t, nil
}

// PutRecord merges patch into the record for id, creating it when absent,
// and returns the result.
func (s *State) PutRecord(id string, patch model.RecordPatch) model.CopyrightRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.table[id].Merge(patch)
	s.table[id] = rec
	return rec
}

// DeleteRecord removes the record for id and reports whether it existed.
func (s *State) DeleteRecord(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.table[id]
	delete(s.table, id)
	return ok
}

// Config returns the display configuration.
func (s *State) Config() model.DisplayConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig merges patch into the display configuration and returns the
// result. An unknown position is rejected and leaves the configuration
// unchanged.
func (s *State) UpdateConfig(patch model.ConfigPatch) (model.DisplayConfig, error) {
	if patch.Position != nil && !patch.Position.IsValid() {
		return s.Config(), fmt.Errorf("%w: %q", config.ErrInvalidPosition, *patch.Position)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = s.config.Merge(patch)
	return s.config, nil
}
