// Package filestore stores daemon-app records as JSON files on local
// disk. It is the development backend; production deployments use the
// awsstore backend instead.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/errors"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets"
)

var _ secrets.Store = (*Store)(nil)

type Store struct {
	dir string
}

// New creates a file-backed store rooted at dir. The directory is
// created lazily on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Get(ctx context.Context, tenantID, appName string) (*secrets.DaemonAppRecord, error) {
	if tenantID == "" {
		return nil, errors.ErrEmptyTenant
	}

	data, err := os.ReadFile(s.recordPath(tenantID, appName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[filestore Get] read record: %w", err)
	}

	var record secrets.DaemonAppRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("[filestore Get] decode record: %w", err)
	}
	record.AlreadyExists = "true"
	return &record, nil
}

func (s *Store) Save(ctx context.Context, tenantID, appName string, record *secrets.DaemonAppRecord) (*secrets.DaemonAppRecord, error) {
	if tenantID == "" {
		return nil, errors.ErrEmptyTenant
	}
	if record == nil {
		return nil, errors.ErrEmptyRecord
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("[filestore Save] create data folder: %w", err)
	}

	path := s.recordPath(tenantID, appName)
	record.CredentialsFilePath = path

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("[filestore Save] encode record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("[filestore Save] write record: %w", err)
	}
	return record, nil
}

func (s *Store) recordPath(tenantID, appName string) string {
	fileName := fmt.Sprintf("sp-%s-%s", tenantID, secrets.NormalizeAppName(appName))
	return filepath.Join(s.dir, fileName)
}
