package azuremgmtfakes

import (
	"context"
	"sync"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/azuremgmt"
)

var _ azuremgmt.API = (*FakeManagement)(nil)

// FakeManagement is an in-memory management API for tests.
type FakeManagement struct {
	lock sync.Mutex

	SubscriptionList  []azuremgmt.Subscription
	ResourceGroupList []azuremgmt.ResourceGroup

	// AssignmentErr is returned by every CreateRoleAssignment call when
	// set (e.g. errors.ErrRoleAlreadyExists).
	AssignmentErr error

	Assignments []azuremgmt.RoleAssignmentRequest
	Calls       map[string]int
}

func NewFakeManagement() *FakeManagement {
	return &FakeManagement{Calls: make(map[string]int)}
}

func (f *FakeManagement) Subscriptions(ctx context.Context, accessToken string) ([]azuremgmt.Subscription, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["Subscriptions"]++
	return append([]azuremgmt.Subscription(nil), f.SubscriptionList...), nil
}

func (f *FakeManagement) ResourceGroups(ctx context.Context, accessToken, subscriptionID string) ([]azuremgmt.ResourceGroup, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["ResourceGroups"]++
	return append([]azuremgmt.ResourceGroup(nil), f.ResourceGroupList...), nil
}

func (f *FakeManagement) CreateRoleAssignment(ctx context.Context, accessToken string, assignment azuremgmt.RoleAssignmentRequest) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["CreateRoleAssignment"]++
	f.Assignments = append(f.Assignments, assignment)
	return f.AssignmentErr
}
