package filestore_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/errors"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets/filestore"
)

const (
	testTenantID = "T1"
	testAppName  = "ClientCo-API"
)

func testRecord() *secrets.DaemonAppRecord {
	return &secrets.DaemonAppRecord{
		Tenant:             testTenantID,
		AppID:              "app-id-1",
		AppName:            testAppName,
		Password:           "s3cret",
		ServicePrincipalID: "sp-id-1",
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store := filestore.New(t.TempDir())
	ctx := context.Background()

	saved, err := store.Save(ctx, testTenantID, testAppName, testRecord())
	require.NoError(t, err)
	require.NotEmpty(t, saved.CredentialsFilePath)

	got, err := store.Get(ctx, testTenantID, testAppName)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, saved.AppID, got.AppID)
	require.Equal(t, saved.Password, got.Password)
	require.Equal(t, saved.ServicePrincipalID, got.ServicePrincipalID)
	require.Equal(t, "true", got.AlreadyExists)
	require.True(t, got.Existed())
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	store := filestore.New(t.TempDir())

	got, err := store.Get(context.Background(), testTenantID, "never-saved")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGetEmptyTenantRejected(t *testing.T) {
	store := filestore.New(t.TempDir())

	_, err := store.Get(context.Background(), "", testAppName)
	require.ErrorIs(t, err, errors.ErrEmptyTenant)
}

func TestSavePreconditions(t *testing.T) {
	store := filestore.New(t.TempDir())

	_, err := store.Save(context.Background(), "", testAppName, testRecord())
	require.ErrorIs(t, err, errors.ErrEmptyTenant)

	_, err = store.Save(context.Background(), testTenantID, testAppName, nil)
	require.ErrorIs(t, err, errors.ErrEmptyRecord)
}

func TestSaveCreatesDataFolderAndNamesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	store := filestore.New(dir)

	record := testRecord()
	record.AppName = "Client Co-API" // spaces become underscores

	saved, err := store.Save(context.Background(), testTenantID, record.AppName, record)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "sp-T1-Client_Co-API"), saved.CredentialsFilePath)

	data, err := os.ReadFile(saved.CredentialsFilePath)
	require.NoError(t, err)

	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(data, &onDisk))
	require.Equal(t, "T1", onDisk["tenant"])
	require.Equal(t, "s3cret", onDisk["password"])
	require.Equal(t, "sp-id-1", onDisk["spId"])
	// alreadyExists is only attached when a record is read back.
	require.NotContains(t, onDisk, "alreadyExists")
}
