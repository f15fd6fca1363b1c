package awsstore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/require"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/errors"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets/awsstore"
)

const (
	testTenantID = "T1"
	testAppName  = "ClientCo-API"
)

// fakeSecretsManager implements awsstore.SecretsAPI in memory.
type fakeSecretsManager struct {
	values map[string]string
	tags   map[string][]types.Tag
}

func newFakeSecretsManager() *fakeSecretsManager {
	return &fakeSecretsManager{
		values: make(map[string]string),
		tags:   make(map[string][]types.Tag),
	}
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	value, ok := f.values[aws.ToString(params.SecretId)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Secrets Manager can't find the specified secret.")}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(value)}, nil
}

func (f *fakeSecretsManager) CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	name := aws.ToString(params.Name)
	f.values[name] = aws.ToString(params.SecretString)
	f.tags[name] = params.Tags
	return &secretsmanager.CreateSecretOutput{Name: params.Name}, nil
}

func testRecord() *secrets.DaemonAppRecord {
	return &secrets.DaemonAppRecord{
		Tenant:             testTenantID,
		AppID:              "app-id-1",
		AppName:            testAppName,
		Password:           "s3cret",
		ServicePrincipalID: "sp-id-1",
	}
}

func TestSecretName(t *testing.T) {
	require.Equal(t, "/ClientCo-API/tenantId=T1", awsstore.SecretName(testTenantID, testAppName))
	require.Equal(t, "/Client_Co-API/tenantId=T1", awsstore.SecretName(testTenantID, "Client Co-API"))
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	client := newFakeSecretsManager()
	store := awsstore.NewFromClient(client)
	ctx := context.Background()

	saved, err := store.Save(ctx, testTenantID, testAppName, testRecord())
	require.NoError(t, err)
	require.Equal(t, "/ClientCo-API/tenantId=T1", saved.AWSSecretName)

	got, err := store.Get(ctx, testTenantID, testAppName)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, saved.AppID, got.AppID)
	require.Equal(t, saved.Password, got.Password)
	require.Equal(t, "true", got.AlreadyExists)
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	store := awsstore.NewFromClient(newFakeSecretsManager())

	got, err := store.Get(context.Background(), testTenantID, "never-saved")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSaveTagsSecret(t *testing.T) {
	client := newFakeSecretsManager()
	store := awsstore.NewFromClient(client)

	_, err := store.Save(context.Background(), testTenantID, testAppName, testRecord())
	require.NoError(t, err)

	tags := client.tags["/ClientCo-API/tenantId=T1"]
	require.Len(t, tags, 2)
	require.Equal(t, "tenantId", aws.ToString(tags[0].Key))
	require.Equal(t, testTenantID, aws.ToString(tags[0].Value))
	require.Equal(t, "appName", aws.ToString(tags[1].Key))
	require.Equal(t, testAppName, aws.ToString(tags[1].Value))
}

func TestSavePreconditions(t *testing.T) {
	store := awsstore.NewFromClient(newFakeSecretsManager())

	_, err := store.Save(context.Background(), "", testAppName, testRecord())
	require.ErrorIs(t, err, errors.ErrEmptyTenant)

	_, err = store.Save(context.Background(), testTenantID, testAppName, nil)
	require.ErrorIs(t, err, errors.ErrEmptyRecord)

	_, err = store.Get(context.Background(), "", testAppName)
	require.ErrorIs(t, err, errors.ErrEmptyTenant)
}

func TestStoredPayloadShape(t *testing.T) {
	client := newFakeSecretsManager()
	store := awsstore.NewFromClient(client)

	_, err := store.Save(context.Background(), testTenantID, testAppName, testRecord())
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(client.values["/ClientCo-API/tenantId=T1"]), &payload))
	require.Equal(t, "T1", payload["tenant"])
	require.Equal(t, "ClientCo-API", payload["appName"])
	require.Equal(t, "/ClientCo-API/tenantId=T1", payload["_awsSecretName"])
	require.NotContains(t, payload, "alreadyExists")
	require.NotContains(t, payload, "_credentials_file_path")
}
