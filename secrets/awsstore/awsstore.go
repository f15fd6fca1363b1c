// Package awsstore stores daemon-app records in AWS Secrets Manager,
// one secret per (tenant, appName) pair, tagged so the record can be
// located by either dimension in the console.
package awsstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/rs/zerolog/log"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/errors"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets"
)

// SecretsAPI is the subset of the Secrets Manager client this store uses.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
}

var _ secrets.Store = (*Store)(nil)

type Store struct {
	client SecretsAPI
}

// New creates a Secrets Manager backed store using the default AWS
// credential chain (environment, shared config, instance role).
func New(ctx context.Context) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("[awsstore New] load AWS config: %w", err)
	}
	return NewFromClient(secretsmanager.NewFromConfig(cfg)), nil
}

// NewFromClient creates a store around an existing client.
func NewFromClient(client SecretsAPI) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, tenantID, appName string) (*secrets.DaemonAppRecord, error) {
	if tenantID == "" {
		return nil, errors.ErrEmptyTenant
	}

	secretName := SecretName(tenantID, appName)
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			log.Debug().Str("secret", secretName).Msg("daemon app secret does not exist")
			return nil, nil
		}
		return nil, fmt.Errorf("[awsstore Get] get secret value: %w", err)
	}

	var record secrets.DaemonAppRecord
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &record); err != nil {
		return nil, fmt.Errorf("[awsstore Get] decode secret %q: %w", secretName, err)
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

	secretName := SecretName(tenantID, appName)
	record.AWSSecretName = secretName

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("[awsstore Save] encode record: %w", err)
	}

	_, err = s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(secretName),
		SecretString: aws.String(string(data)),
		Tags: []types.Tag{
			{Key: aws.String("tenantId"), Value: aws.String(tenantID)},
			{Key: aws.String("appName"), Value: aws.String(appName)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[awsstore Save] create secret %q: %w", secretName, err)
	}
	return record, nil
}

// SecretName derives the Secrets Manager name for a record.
func SecretName(tenantID, appName string) string {
	return fmt.Sprintf("/%s/tenantId=%s", secrets.NormalizeAppName(appName), tenantID)
}
