package usersession_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/authflow"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/server/usersession"
)

func TestUpsertAndGet(t *testing.T) {
	repo := usersession.NewInMemoryRepo()

	session := usersession.Session{
		Authenticated: true,
		AccessToken:   "access-token",
		Account: authflow.Account{
			TenantID: "T1",
			Username: "jane@clientco.example",
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Upsert("session-1", session))

	got, err := repo.Get("session-1")
	require.NoError(t, err)
	require.True(t, got.Authenticated)
	require.Equal(t, "access-token", got.AccessToken)
	require.Equal(t, "T1", got.Account.TenantID)
}

func TestUpsertOverwrites(t *testing.T) {
	repo := usersession.NewInMemoryRepo()

	require.NoError(t, repo.Upsert("session-1", usersession.Session{
		Flow: &authflow.FlowState{CSRFToken: "csrf-1"},
	}))
	require.NoError(t, repo.Upsert("session-1", usersession.Session{
		Authenticated: true,
	}))

	got, err := repo.Get("session-1")
	require.NoError(t, err)
	require.True(t, got.Authenticated)
	require.Nil(t, got.Flow)
}

func TestGetUnknownSession(t *testing.T) {
	repo := usersession.NewInMemoryRepo()

	_, err := repo.Get("never-created")
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	repo := usersession.NewInMemoryRepo()

	require.NoError(t, repo.Upsert("session-1", usersession.Session{Authenticated: true}))
	require.NoError(t, repo.Delete("session-1"))

	_, err := repo.Get("session-1")
	require.Error(t, err)

	// Deleting an unknown session is not an error.
	require.NoError(t, repo.Delete("session-1"))
}

func TestEmptySessionIDRejected(t *testing.T) {
	repo := usersession.NewInMemoryRepo()

	require.Error(t, repo.Upsert("", usersession.Session{}))
	_, err := repo.Get("")
	require.Error(t, err)
	require.Error(t, repo.Delete(""))
}
