package storefakes

import (
	"context"
	"sync"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/errors"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets"
)

var _ secrets.Store = (*FakeStore)(nil)

// FakeStore is an in-memory secrets.Store for tests.
type FakeStore struct {
	lock    sync.Mutex
	records map[string]secrets.DaemonAppRecord
	Calls   map[string]int

	// AfterGetMiss, when set, runs after a lookup that found nothing.
	// Tests use it as a barrier to line racers up inside the
	// check-then-act window.
	AfterGetMiss func()
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		records: make(map[string]secrets.DaemonAppRecord),
		Calls:   make(map[string]int),
	}
}

func (f *FakeStore) Get(ctx context.Context, tenantID, appName string) (*secrets.DaemonAppRecord, error) {
	if tenantID == "" {
		return nil, errors.ErrEmptyTenant
	}
	f.lock.Lock()
	f.Calls["Get"]++
	record, ok := f.records[tenantID+"|"+appName]
	f.lock.Unlock()
	if !ok {
		if f.AfterGetMiss != nil {
			f.AfterGetMiss()
		}
		return nil, nil
	}
	record.AlreadyExists = "true"
	return &record, nil
}

func (f *FakeStore) Save(ctx context.Context, tenantID, appName string, record *secrets.DaemonAppRecord) (*secrets.DaemonAppRecord, error) {
	if tenantID == "" {
		return nil, errors.ErrEmptyTenant
	}
	if record == nil {
		return nil, errors.ErrEmptyRecord
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["Save"]++
	f.records[tenantID+"|"+appName] = *record
	return record, nil
}
