// Package accountrepo persists the account list under one namespaced storage
// key: <dataDir>/cygnus/accounts.json. Nothing else is durable; assets, prices
// and loading state are rebuilt fresh every run.
package accountrepo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

const (
	storageNamespace = "cygnus"
	storageFile      = "accounts.json"
)

// document is the on-disk schema.
type document struct {
	Accounts []entity.Account `json:"accounts"`
}

// FileRepository implements port.AccountRepository over one JSON document.
type FileRepository struct {
	path   string
	logger *zap.Logger
}

// New creates a repository rooted at dataDir.
func New(dataDir string, logger *zap.Logger) *FileRepository {
	return &FileRepository{
		path:   filepath.Join(dataDir, storageNamespace, storageFile),
		logger: logger.Named("AccountRepo"),
	}
}

// Load reads the persisted account list. A missing file is an empty list, not
// an error.
func (r *FileRepository) Load() ([]entity.Account, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read account store %s: %w", r.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account store %s: %w", r.path, err)
	}
	r.logger.Info("Accounts loaded", zap.Int("count", len(doc.Accounts)), zap.String("path", r.path))
	return doc.Accounts, nil
}

// Save atomically rewrites the account document (temp file + rename).
func (r *FileRepository) Save(accounts []entity.Account) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create account store directory: %w", err)
	}

	data, err := json.MarshalIndent(document{Accounts: accounts}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal account store: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write account store: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace account store: %w", err)
	}
	return nil
}
