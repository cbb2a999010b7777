// Package bookmarks keeps saved OIDs with the query to run on them.
package bookmarks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazysnmp/internal/export"
	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// ErrNotFound is returned for an unknown bookmark ID
var ErrNotFound = errors.New("bookmark not found")

// Manager manages OID bookmarks
type Manager struct {
	mu        sync.RWMutex
	path      string
	bookmarks []models.Bookmark
	now       func() time.Time
}

// NewManager creates a bookmark manager backed by bookmarks.yaml in configDir
func NewManager(configDir string) (*Manager, error) {
	path := filepath.Join(configDir, "bookmarks.yaml")

	m := &Manager{
		path:      path,
		bookmarks: []models.Bookmark{},
		now:       time.Now,
	}

	if _, err := os.Stat(path); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load bookmarks: %w", err)
		}
	}

	return m, nil
}

// Load loads bookmarks from the YAML file
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read bookmarks file: %w", err)
	}

	var loaded []models.Bookmark
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse bookmarks: %w", err)
	}

	m.mu.Lock()
	m.bookmarks = loaded
	m.mu.Unlock()
	return nil
}

// save writes the bookmarks; callers hold mu
func (m *Manager) save() error {
	data, err := yaml.Marshal(m.bookmarks)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmarks: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bookmarks file: %w", err)
	}

	return nil
}

func validate(name, oid string, op models.Operation) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", models.NewValidationError("name", "bookmark name can't be empty")
	}
	norm, err := models.NormalizeOID(oid)
	if err != nil {
		return "", "", err
	}
	switch op {
	case models.OpGet, models.OpGetNext, models.OpBulkWalk:
	default:
		return "", "", models.NewValidationError("operation", fmt.Sprintf("unknown operation %q", op))
	}
	return name, norm, nil
}

// Add saves a new bookmark. Names are unique, case-insensitively.
func (m *Manager) Add(name, oid string, op models.Operation, description string, tags []string) (*models.Bookmark, error) {
	name, norm, err := validate(name, oid, op)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.bookmarks {
		if strings.EqualFold(b.Name, name) {
			return nil, models.NewValidationError("name",
				fmt.Sprintf("a bookmark named %q already exists", name))
		}
	}

	bookmark := models.Bookmark{
		ID:          uuid.New().String(),
		Name:        name,
		OID:         norm,
		Operation:   op,
		Description: strings.TrimSpace(description),
		Tags:        tags,
		CreatedAt:   m.now(),
	}

	m.bookmarks = append(m.bookmarks, bookmark)
	if err := m.save(); err != nil {
		m.bookmarks = m.bookmarks[:len(m.bookmarks)-1]
		return nil, fmt.Errorf("failed to save bookmark: %w", err)
	}

	return &bookmark, nil
}

// Update changes an existing bookmark
func (m *Manager) Update(id, name, oid string, op models.Operation, description string, tags []string) error {
	name, norm, err := validate(name, oid, op)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.bookmarks {
		if b.ID != id && strings.EqualFold(b.Name, name) {
			return models.NewValidationError("name", fmt.Sprintf("a bookmark named %q already exists", name))
		}
	}

	for i, b := range m.bookmarks {
		if b.ID == id {
			m.bookmarks[i].Name = name
			m.bookmarks[i].OID = norm
			m.bookmarks[i].Operation = op
			m.bookmarks[i].Description = strings.TrimSpace(description)
			m.bookmarks[i].Tags = tags
			if err := m.save(); err != nil {
				return fmt.Errorf("failed to save bookmark: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes a bookmark by ID
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, b := range m.bookmarks {
		if b.ID == id {
			m.bookmarks = append(m.bookmarks[:i], m.bookmarks[i+1:]...)
			if err := m.save(); err != nil {
				return fmt.Errorf("failed to save bookmarks after deletion: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Get returns a bookmark by ID
func (m *Manager) Get(id string) (*models.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.bookmarks {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// GetAll returns a copy of every bookmark
func (m *Manager) GetAll() []models.Bookmark {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Bookmark(nil), m.bookmarks...)
}

// Search matches name, OID, description and tags, case-insensitively
func (m *Manager) Search(query string) []models.Bookmark {
	if query == "" {
		return m.GetAll()
	}

	query = strings.ToLower(query)
	var results []models.Bookmark

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookmarks {
		if strings.Contains(strings.ToLower(b.Name), query) ||
			strings.HasPrefix(b.OID, query) ||
			strings.Contains(strings.ToLower(b.Description), query) {
			results = append(results, b)
			continue
		}
		for _, tag := range b.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				results = append(results, b)
				break
			}
		}
	}

	return results
}

// RecordUsage bumps the usage statistics of a bookmark
func (m *Manager) RecordUsage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, b := range m.bookmarks {
		if b.ID == id {
			m.bookmarks[i].UsageCount++
			m.bookmarks[i].LastUsed = m.now()
			if err := m.save(); err != nil {
				return fmt.Errorf("failed to save usage statistics: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// GetMostUsed returns bookmarks by descending usage count
func (m *Manager) GetMostUsed(limit int) []models.Bookmark {
	sorted := m.GetAll()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsageCount > sorted[j].UsageCount
	})
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// GetRecent returns bookmarks by most recent use
func (m *Manager) GetRecent(limit int) []models.Bookmark {
	sorted := m.GetAll()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastUsed.After(sorted[j].LastUsed)
	})
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// ExportToCSV writes every bookmark to path, or bookmarks.csv beside the
// YAML file when path is empty
func (m *Manager) ExportToCSV(path string) (string, error) {
	all := m.GetAll()
	if len(all) == 0 {
		return "", fmt.Errorf("no bookmarks to export")
	}
	if path == "" {
		path = filepath.Join(filepath.Dir(m.path), "bookmarks.csv")
	}
	if err := export.BookmarksToCSV(all, path); err != nil {
		return "", fmt.Errorf("failed to export bookmarks to CSV: %w", err)
	}
	return path, nil
}

// ExportToJSON writes every bookmark to path, or bookmarks.json beside the
// YAML file when path is empty
func (m *Manager) ExportToJSON(path string) (string, error) {
	all := m.GetAll()
	if len(all) == 0 {
		return "", fmt.Errorf("no bookmarks to export")
	}
	if path == "" {
		path = filepath.Join(filepath.Dir(m.path), "bookmarks.json")
	}
	if err := export.ToJSON(all, path); err != nil {
		return "", fmt.Errorf("failed to export bookmarks to JSON: %w", err)
	}
	return path, nil
}
