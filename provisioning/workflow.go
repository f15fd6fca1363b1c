// Package provisioning implements the idempotent daemon-app workflow:
// find-or-create the application, its service principal and a client
// credential, persist the record, and grant the Reader role on the
// caller's first visible subscription.
//
// Find-or-create is check-then-act against the directory and is not
// atomic: two sessions racing the first provisioning run for the same
// tenant can each create an application object. This matches the
// provider's own semantics and is deliberately not locked; the
// role-assignment leg absorbs its one documented conflict code instead.
package provisioning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/azuremgmt"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/errors"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/msgraph"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets"
)

const (
	// daemonAppSuffix derives the daemon app name from the caller
	// application's display name.
	daemonAppSuffix = "-API"

	passwordDisplayName = "registrator"
	passwordValidity    = 1 // years

	// readerRoleDefinitionID is the well-known built-in Reader role.
	readerRoleDefinitionID = "acdd72a7-3385-48ef-bd42-f606fba81ae7"

	// RoleReader is the label attached to assignment results.
	RoleReader = "Reader"
)

// UserTokens carries the authenticated caller's access token and the
// identity claims the workflow needs.
type UserTokens struct {
	AccessToken string
	TenantID    string // tid claim
	ClientAppID string // aud claim: client id of the caller application
}

// RoleAssignmentRecord merges a daemon-app record with the result of
// one role assignment. It is recomputed on demand, never persisted.
type RoleAssignmentRecord struct {
	secrets.DaemonAppRecord
	SubscriptionID     string `json:"subscriptionId"`
	RoleAssignmentName string `json:"roleAssignmentName"`
	RoleID             string `json:"roleId"`
	Role               string `json:"role"`
}

// Deps holds all external dependencies for the Workflow
type Deps struct {
	Directory  msgraph.API
	Management azuremgmt.API
	Store      secrets.Store
}

type Workflow struct {
	deps Deps
	now  func() time.Time
}

func New(deps Deps) (*Workflow, error) {
	if deps.Directory == nil {
		return nil, fmt.Errorf("[provisioning New] directory client is required")
	}
	if deps.Management == nil {
		return nil, fmt.Errorf("[provisioning New] management client is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("[provisioning New] secret store is required")
	}
	return &Workflow{deps: deps, now: time.Now}, nil
}

// CreateDaemonApp provisions the daemon application identity for the
// caller's tenant, or returns the stored record when one exists.
//
// Repeated calls for the same tenant and caller return the same record;
// the short-circuit path performs no directory calls at all.
func (w *Workflow) CreateDaemonApp(ctx context.Context, tokens UserTokens) (*secrets.DaemonAppRecord, error) {
	tenantID := tokens.TenantID
	if tenantID == "" {
		return nil, fmt.Errorf("[provisioning CreateDaemonApp] token has no tenant id")
	}
	if tokens.ClientAppID == "" {
		return nil, fmt.Errorf("[provisioning CreateDaemonApp] token has no audience claim")
	}

	// The caller's own registration must exist and be consented in the
	// tenant; this is a hard precondition, not retried.
	callerSP, err := w.deps.Directory.ServicePrincipalByAppID(ctx, tokens.AccessToken, tokens.ClientAppID)
	if err != nil {
		return nil, errors.Wrapf(err, "[provisioning CreateDaemonApp] caller lookup")
	}
	if callerSP == nil || callerSP.AppDisplayName == "" {
		return nil, errors.ErrAppNotConsented
	}

	daemonAppName := callerSP.AppDisplayName + daemonAppSuffix

	record, err := w.deps.Store.Get(ctx, tenantID, daemonAppName)
	if err != nil {
		return nil, errors.Wrapf(err, "[provisioning CreateDaemonApp] storage lookup")
	}
	if record != nil {
		log.Info().Str("tenant", tenantID).Str("appName", daemonAppName).Msg("daemon app already provisioned")
		return record, nil
	}

	app, err := w.findOrCreateApplication(ctx, tokens.AccessToken, daemonAppName)
	if err != nil {
		return nil, err
	}

	daemonSP, err := w.findOrCreateServicePrincipal(ctx, tokens.AccessToken, app.AppID)
	if err != nil {
		return nil, err
	}

	start := w.now().UTC()
	credential, err := w.deps.Directory.AddApplicationPassword(ctx, tokens.AccessToken, app.ObjectID, msgraph.PasswordRequest{
		DisplayName: passwordDisplayName,
		Start:       start,
		End:         start.AddDate(passwordValidity, 0, 0),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[provisioning CreateDaemonApp] add password")
	}

	record = &secrets.DaemonAppRecord{
		Tenant:             tenantID,
		AppID:              app.AppID,
		AppName:            daemonAppName,
		Password:           credential.SecretText,
		ServicePrincipalID: daemonSP.ObjectID,
	}
	if _, err := w.deps.Store.Save(ctx, tenantID, daemonAppName, record); err != nil {
		return nil, errors.Wrapf(err, "[provisioning CreateDaemonApp] persist record")
	}

	log.Info().Str("tenant", tenantID).Str("appName", daemonAppName).Str("appId", app.AppID).Msg("provisioned daemon app")
	return record, nil
}

// AssignDaemonAppRole grants the Reader role to a previously
// provisioned daemon app on the caller's first visible subscription.
// The RoleAssignmentExists conflict is treated as success.
func (w *Workflow) AssignDaemonAppRole(ctx context.Context, tokens UserTokens, record *secrets.DaemonAppRecord) (*RoleAssignmentRecord, error) {
	if record == nil {
		return nil, errors.ErrDaemonAppNotFound
	}

	subscriptions, err := w.deps.Management.Subscriptions(ctx, tokens.AccessToken)
	if err != nil {
		return nil, errors.Wrapf(err, "[provisioning AssignDaemonAppRole] list subscriptions")
	}
	if len(subscriptions) == 0 {
		return nil, fmt.Errorf("%w for tenant %s", errors.ErrNoSubscription, record.Tenant)
	}
	subscription := subscriptions[0]

	assignmentName := uuid.New().String()
	roleDefinitionID := fmt.Sprintf("/subscriptions/%s/providers/Microsoft.Authorization/roleDefinitions/%s",
		subscription.SubscriptionID, readerRoleDefinitionID)

	err = w.deps.Management.CreateRoleAssignment(ctx, tokens.AccessToken, azuremgmt.RoleAssignmentRequest{
		SubscriptionID:   subscription.SubscriptionID,
		AssignmentName:   assignmentName,
		RoleDefinitionID: roleDefinitionID,
		PrincipalID:      record.ServicePrincipalID,
	})
	if err != nil && !errors.Is(err, errors.ErrRoleAlreadyExists) {
		return nil, errors.Wrapf(err, "[provisioning AssignDaemonAppRole] create role assignment")
	}

	return &RoleAssignmentRecord{
		DaemonAppRecord:    *record,
		SubscriptionID:     subscription.SubscriptionID,
		RoleAssignmentName: assignmentName,
		RoleID:             roleDefinitionID,
		Role:               RoleReader,
	}, nil
}

func (w *Workflow) findOrCreateApplication(ctx context.Context, accessToken, displayName string) (*msgraph.Application, error) {
	app, err := w.deps.Directory.ApplicationByDisplayName(ctx, accessToken, displayName)
	if err != nil {
		return nil, errors.Wrapf(err, "[provisioning findOrCreateApplication] lookup")
	}
	if app != nil {
		return app, nil
	}
	app, err = w.deps.Directory.CreateApplication(ctx, accessToken, displayName)
	if err != nil {
		return nil, errors.Wrapf(err, "[provisioning findOrCreateApplication] create")
	}
	return app, nil
}

func (w *Workflow) findOrCreateServicePrincipal(ctx context.Context, accessToken, appID string) (*msgraph.ServicePrincipal, error) {
	sp, err := w.deps.Directory.ServicePrincipalByAppID(ctx, accessToken, appID)
	if err != nil {
		return nil, errors.Wrapf(err, "[provisioning findOrCreateServicePrincipal] lookup")
	}
	if sp != nil {
		return sp, nil
	}
	sp, err = w.deps.Directory.CreateServicePrincipal(ctx, accessToken, appID)
	if err != nil {
		return nil, errors.Wrapf(err, "[provisioning findOrCreateServicePrincipal] create")
	}
	return sp, nil
}
