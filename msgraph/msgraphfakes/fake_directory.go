package msgraphfakes

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/msgraph"
)

var _ msgraph.API = (*FakeDirectory)(nil)

// FakeDirectory is an in-memory directory for tests. Applications are
// kept as a slice so duplicate creations (the documented find-or-create
// race) stay visible instead of overwriting each other.
type FakeDirectory struct {
	lock sync.Mutex

	servicePrincipals []*msgraph.ServicePrincipal
	applications      []*msgraph.Application

	SecretText string
	Calls      map[string]int

	// BeforeCreateApplication, when set, runs before a create commits.
	// Tests use it as a barrier to hold all racers past the lookup miss.
	BeforeCreateApplication func()
}

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{
		SecretText: "fake-secret-" + uuid.New().String(),
		Calls:      make(map[string]int),
	}
}

// AddServicePrincipal seeds a service principal.
func (f *FakeDirectory) AddServicePrincipal(appID, displayName string) *msgraph.ServicePrincipal {
	f.lock.Lock()
	defer f.lock.Unlock()
	sp := &msgraph.ServicePrincipal{
		ObjectID:       uuid.New().String(),
		AppID:          appID,
		AppDisplayName: displayName,
		AccountEnabled: true,
	}
	f.servicePrincipals = append(f.servicePrincipals, sp)
	return sp
}

func (f *FakeDirectory) ServicePrincipalByAppID(ctx context.Context, accessToken, appID string) (*msgraph.ServicePrincipal, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["ServicePrincipalByAppID"]++
	for _, sp := range f.servicePrincipals {
		if sp.AppID == appID {
			spCopy := *sp
			return &spCopy, nil
		}
	}
	return nil, nil
}

func (f *FakeDirectory) ApplicationByDisplayName(ctx context.Context, accessToken, displayName string) (*msgraph.Application, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["ApplicationByDisplayName"]++
	for _, app := range f.applications {
		if app.DisplayName == displayName {
			appCopy := *app
			return &appCopy, nil
		}
	}
	return nil, nil
}

func (f *FakeDirectory) CreateApplication(ctx context.Context, accessToken, displayName string) (*msgraph.Application, error) {
	if f.BeforeCreateApplication != nil {
		f.BeforeCreateApplication()
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["CreateApplication"]++
	app := &msgraph.Application{
		ObjectID:    uuid.New().String(),
		AppID:       uuid.New().String(),
		DisplayName: displayName,
	}
	f.applications = append(f.applications, app)
	appCopy := *app
	return &appCopy, nil
}

func (f *FakeDirectory) CreateServicePrincipal(ctx context.Context, accessToken, appID string) (*msgraph.ServicePrincipal, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["CreateServicePrincipal"]++
	sp := &msgraph.ServicePrincipal{
		ObjectID:       uuid.New().String(),
		AppID:          appID,
		AccountEnabled: true,
	}
	f.servicePrincipals = append(f.servicePrincipals, sp)
	spCopy := *sp
	return &spCopy, nil
}

func (f *FakeDirectory) AddApplicationPassword(ctx context.Context, accessToken, objectID string, password msgraph.PasswordRequest) (*msgraph.PasswordCredential, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["AddApplicationPassword"]++
	return &msgraph.PasswordCredential{
		KeyID:       uuid.New().String(),
		DisplayName: password.DisplayName,
		SecretText:  f.SecretText,
	}, nil
}

// ApplicationsNamed returns every application object carrying the name.
func (f *FakeDirectory) ApplicationsNamed(displayName string) []*msgraph.Application {
	f.lock.Lock()
	defer f.lock.Unlock()
	var matches []*msgraph.Application
	for _, app := range f.applications {
		if app.DisplayName == displayName {
			matches = append(matches, app)
		}
	}
	return matches
}

// WriteCalls counts directory mutations.
func (f *FakeDirectory) WriteCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.Calls["CreateApplication"] + f.Calls["CreateServicePrincipal"] + f.Calls["AddApplicationPassword"]
}

// TotalCalls counts every directory call, reads included.
func (f *FakeDirectory) TotalCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	total := 0
	for _, n := range f.Calls {
		total += n
	}
	return total
}
