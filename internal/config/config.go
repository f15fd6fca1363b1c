package config

type Config interface {
	EnvConfig
	AzureConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetBaseURL() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Azure
	Storage
}

func New() Config {
	return mainConfig{}
}
