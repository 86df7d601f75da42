// Package history provides local storage for generated compliance documents.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/diogo/compliancegen/internal/config"
	"github.com/diogo/compliancegen/internal/models"
	"github.com/diogo/compliancegen/internal/prompt"
)

// AttemptSummary is the persisted form of a failed attempt
type AttemptSummary struct {
	Identifier string `json:"identifier"`
	Retrieval  bool   `json:"retrieval,omitempty"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
}

// Record represents one generated document
type Record struct {
	ID               string           `json:"id"`
	Product          prompt.Product   `json:"product"`
	Model            string           `json:"model"`
	Retrieval        bool             `json:"retrieval,omitempty"`
	Text             string           `json:"text"`
	GroundingSources []string         `json:"grounding_sources,omitempty"`
	Attempts         []AttemptSummary `json:"attempts,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Title returns a short label for listings
func (r *Record) Title() string {
	name := strings.TrimSpace(r.Product.Name)
	if name == "" {
		name = "(unnamed)"
	}
	if r.Product.HSCode != "" {
		return fmt.Sprintf("%s (HS %s)", name, r.Product.HSCode)
	}
	return name
}

// NewRecord builds a record from a successful generation
func NewRecord(p prompt.Product, res *models.GenerationResult) *Record {
	rec := &Record{
		Product:          p,
		Model:            res.Model,
		Retrieval:        res.Retrieval,
		Text:             res.Text,
		GroundingSources: res.GroundingSources,
	}
	for _, a := range res.Attempts {
		s := AttemptSummary{Identifier: a.Identifier, Retrieval: a.Retrieval, Stage: a.Stage}
		if a.Err != nil {
			s.Error = a.Err.Error()
		}
		rec.Attempts = append(rec.Attempts, s)
	}
	return rec
}

// Store manages record persistence, one JSON file per record
type Store struct {
	baseDir string
	mu      sync.RWMutex
	now     func() time.Time
}

// NewStore creates a new history store under baseDir/history
func NewStore(baseDir string) (*Store, error) {
	historyDir := filepath.Join(baseDir, "history")
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &Store{
		baseDir: historyDir,
		now:     time.Now,
	}, nil
}

// Dir returns the directory holding the record files
func (s *Store) Dir() string {
	return s.baseDir
}

// Save assigns an ID and timestamp when missing and writes the record
func (s *Store) Save(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}

	return s.saveRecord(rec)
}

// Get retrieves a record by ID
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadRecord(id)
}

// List returns all records, newest first
func (s *Store) List() ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		rec, err := s.loadRecord(id)
		if err != nil {
			continue // Skip corrupted files
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records, nil
}

// Delete removes a record
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validID(id); err != nil {
		return err
	}
	if err := os.Remove(s.recordPath(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("record not found: %s", id)
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}

	return nil
}

// ClearAll deletes all records
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to read history directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.baseDir, entry.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid record id: %q", id)
	}
	return nil
}

func (s *Store) loadRecord(id string) (*Record, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}

	return &rec, nil
}

func (s *Store) saveRecord(rec *Record) error {
	if err := validID(rec.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := os.WriteFile(s.recordPath(rec.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	return nil
}

// DefaultStore creates a store using the default location
func DefaultStore() (*Store, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir)
}
