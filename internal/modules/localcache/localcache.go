// Package localcache persists a copy of the solutions list on local disk. The public
// read layer serves it when the remote store is unavailable.
package localcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/microsolutions/showcase/internal/models"
	"go.uber.org/zap"
)

// DemoDatasetSize is the size of the legacy demo dataset. MigrateDemoToReal treats any
// cached list of at most this many entries as demo data.
const DemoDatasetSize = 4

// Store reads and writes one JSON file. Last write wins.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func New(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger.Named("localcache")}
}

func (s *Store) Path() string { return s.path }

// Load returns the cached list, or nil when the file is absent or malformed.
func (s *Store) Load() []models.SolutionModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() []models.SolutionModel {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("read cache failed", zap.String("path", s.path), zap.Error(err))
		}
		return nil
	}
	var list []models.SolutionModel
	if err := json.Unmarshal(data, &list); err != nil {
		s.logger.Warn("cache file is malformed", zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return list
}

// Save replaces the cached list. The file is written to a temp file and renamed.
func (s *Store) Save(list []models.SolutionModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(list)
}

func (s *Store) save(list []models.SolutionModel) error {
	if list == nil {
		list = []models.SolutionModel{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".solutions-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// MigrateDemoToReal overwrites the cache with real when the cache is absent or holds
// at most DemoDatasetSize entries. It reports whether it wrote.
//
// A genuine list of DemoDatasetSize entries or fewer is indistinguishable from the
// demo dataset and gets overwritten too.
func (s *Store) MigrateDemoToReal(real []models.SolutionModel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.load(); current != nil && len(current) > DemoDatasetSize {
		return false, nil
	}
	if err := s.save(real); err != nil {
		return false, err
	}
	s.logger.Info("replaced demo cache", zap.Int("entries", len(real)))
	return true, nil
}
