package secrets

import "context"

// Store persists DaemonAppRecords keyed by (tenantID, appName).
//
// The backend is chosen once per process at startup and injected into
// the provisioning workflow; it must not vary per call.
type Store interface {
	// Get returns the record for (tenantID, appName), or (nil, nil) when
	// no record exists. A found record has AlreadyExists set to "true".
	Get(ctx context.Context, tenantID, appName string) (*DaemonAppRecord, error)

	// Save writes the record so it can be found again by exactly
	// (tenantID, appName), attaching a backend-specific locator first.
	// An empty tenantID or nil record is a precondition error.
	Save(ctx context.Context, tenantID, appName string, record *DaemonAppRecord) (*DaemonAppRecord, error)
}
