// Package mib loads MIB modules with gosmi and serves them to the schema
// indexer.
package mib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sleepinggenius2/gosmi"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// DefaultPaths are searched when no MIB directory is configured
var DefaultPaths = []string{
	"/usr/share/snmp/mibs",
	"/usr/local/share/snmp/mibs",
}

// gosmi keeps its module table in package state
var smiMu sync.Mutex

// LoadError records a module file gosmi refused
type LoadError struct {
	File string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// Loader reads every module file from a set of directories
type Loader struct {
	paths []string
	log   *slog.Logger

	mu     sync.Mutex
	loaded bool
	failed []LoadError
}

// NewLoader creates a loader for paths. Missing directories are skipped.
func NewLoader(paths []string) *Loader {
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	return &Loader{
		paths: paths,
		log:   slog.Default().With("component", "mib"),
	}
}

// Paths returns the directories the loader searches
func (l *Loader) Paths() []string {
	return l.paths
}

// Failed returns the files that did not load on the last Load
func (l *Loader) Failed() []LoadError {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LoadError(nil), l.failed...)
}

// Load initializes gosmi and loads every regular file in the search paths
// as a module, named after the file without its extension
func (l *Loader) Load(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	smiMu.Lock()
	defer smiMu.Unlock()

	gosmi.Init()
	var (
		loaded []string
		failed []LoadError
		seen   int
	)
	for _, dir := range l.paths {
		files, err := ModuleFiles(dir)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				l.log.Warn("cannot read MIB directory", "dir", dir, "err", err)
			}
			continue
		}
		gosmi.AppendPath(dir)
		seen++

		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			name, err := gosmi.LoadModule(strings.TrimSuffix(file, filepath.Ext(file)))
			if err != nil {
				failed = append(failed, LoadError{File: filepath.Join(dir, file), Err: err})
				l.log.Debug("failed to load MIB module", "file", file, "err", err)
				continue
			}
			loaded = append(loaded, name)
		}
	}

	l.loaded = true
	l.failed = failed
	l.log.Info("MIB modules loaded", "dirs", seen, "modules", len(loaded), "failed", len(failed))
	return loaded, nil
}

// ModuleFiles lists the regular files of dir in name order
func ModuleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Modules converts every loaded gosmi module, keyed by module name
func (l *Loader) Modules(ctx context.Context) (map[string]models.SchemaModule, error) {
	l.mu.Lock()
	loaded := l.loaded
	l.mu.Unlock()
	if !loaded {
		if _, err := l.Load(ctx); err != nil {
			return nil, err
		}
	}

	smiMu.Lock()
	defer smiMu.Unlock()

	out := make(map[string]models.SchemaModule)
	for _, lm := range gosmi.GetLoadedModules() {
		m, err := gosmi.GetModule(lm.Name)
		if err != nil {
			l.log.Warn("failed to read MIB module", "module", lm.Name, "err", err)
			continue
		}
		out[lm.Name] = convertModule(m)
	}
	return out, nil
}

// FetchModules returns the loaded modules in the indexer's JSON shape
func (l *Loader) FetchModules(ctx context.Context) ([]byte, error) {
	modules, err := l.Modules(ctx)
	if err != nil {
		return nil, err
	}
	return models.EncodeSchemaModules(modules)
}

func convertModule(m gosmi.SmiModule) models.SchemaModule {
	out := models.SchemaModule{
		Name:         m.Name,
		Language:     fmt.Sprint(m.Language),
		Organization: m.Organization,
		Path:         m.Path,
		Reference:    m.Reference,
		Description:  m.Description,
		ContactInfo:  m.ContactInfo,
	}
	for _, n := range m.GetNodes() {
		out.Nodes = append(out.Nodes, models.SchemaNode{
			Name:        n.Name,
			OID:         n.Oid.String(),
			Kind:        fmt.Sprint(n.Kind),
			Description: n.Description,
		})
	}
	for _, t := range m.GetTypes() {
		out.Types = append(out.Types, models.SchemaType{
			Name:        t.Name,
			BaseType:    fmt.Sprint(t.BaseType),
			Description: t.Description,
		})
	}
	return out
}

// Dump writes one indented JSON file per module into dir
func Dump(dir string, modules map[string]models.SchemaModule) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}

	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		m := modules[name]
		data, err := json.MarshalIndent(struct {
			Module models.SchemaModule
			Nodes  []models.SchemaNode
			Types  []models.SchemaType
		}{Module: stripCollections(m), Nodes: m.Nodes, Types: m.Types}, "", "\t")
		if err != nil {
			return written, fmt.Errorf("failed to encode module %s: %w", name, err)
		}

		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func stripCollections(m models.SchemaModule) models.SchemaModule {
	m.Nodes, m.Types = nil, nil
	return m
}
