// Package usersession holds the per-browser-session server-side state
// that threads the auth flow and the provisioning workflow together.
package usersession

import (
	"time"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/authflow"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/provisioning"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets"
)

// Session is one user's server-side state, keyed by the session cookie.
// It is read and written only while handling that user's requests; the
// model assumes at most one in-flight request per session.
type Session struct {
	// Flow is the pending redirect attempt: CSRF token, PKCE material
	// and post-login intent. Nil when no flow is in progress.
	Flow *authflow.FlowState

	// Populated only after a successful code exchange.
	Authenticated bool
	AccessToken   string
	IDToken       string
	Account       authflow.Account

	// Results attached by intent dispatch.
	DaemonApp      *secrets.DaemonAppRecord
	RoleAssignment *provisioning.RoleAssignmentRecord

	CreatedAt time.Time
}

type Repo interface {
	Upsert(sessionID string, session Session) error
	Get(sessionID string) (Session, error)
	Delete(sessionID string) error
}
