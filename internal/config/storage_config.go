package config

// Storage backend identifiers for the SECRET_STORAGE switch.
const (
	StorageLocalFiles = "LOCAL_FILES"
	StorageAWSSecrets = "AWS_SECRETS"
)

type StorageConfig interface {
	GetSecretStorage() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetSecretStorage selects the secret-storage backend for the whole
// process. The choice is made once at startup and never re-resolved.
func (Storage) GetSecretStorage() string {
	return GetEnv("SECRET_STORAGE", StorageAWSSecrets)
}
