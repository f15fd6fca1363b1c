package config

type AzureConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetTenantID() string
	GetCloudInstance() string
	GetRedirectURI() string
	GetPostLogoutRedirectURI() string
	GetSigninScopes() []string
	GetManagementScopes() []string
	GetGraphScopes() []string
	GetGraphEndpoint() string
	GetManagementEndpoint() string
}

type Azure struct{}

var _ AzureConfig = Azure{}

// GetClientID returns the application (client) id of this web app's
// own registration in the directory.
func (Azure) GetClientID() string {
	return GetEnv("AZURE_CLIENT_ID", "")
}

func (Azure) GetClientSecret() string {
	return GetEnv("AZURE_CLIENT_SECRET", "")
}

// GetTenantID returns the directory tenant to authenticate against.
// "organizations" allows any work or school account.
func (Azure) GetTenantID() string {
	return GetEnv("AZURE_TENANT_ID", "organizations")
}

func (Azure) GetCloudInstance() string {
	return GetEnv("AZURE_CLOUD_INSTANCE", "https://login.microsoftonline.com")
}

func (a Azure) GetRedirectURI() string {
	return GetEnv("AZURE_REDIRECT_URI", EnvVars{}.GetBaseURL()+"/auth/redirect")
}

func (a Azure) GetPostLogoutRedirectURI() string {
	return GetEnv("AZURE_POST_LOGOUT_REDIRECT_URI", EnvVars{}.GetBaseURL())
}

func (Azure) GetSigninScopes() []string {
	return []string{"openid", "profile", "email"}
}

// GetManagementScopes requests delegated access to the Azure Resource
// Manager API on behalf of the signed-in user.
func (Azure) GetManagementScopes() []string {
	return []string{"https://management.azure.com/user_impersonation"}
}

// GetGraphScopes requests the statically consented Microsoft Graph
// permissions, which must include Application.ReadWrite.All for
// daemon-app provisioning.
func (Azure) GetGraphScopes() []string {
	return []string{"https://graph.microsoft.com/.default"}
}

func (Azure) GetGraphEndpoint() string {
	return GetEnv("GRAPH_ENDPOINT", "https://graph.microsoft.com/v1.0")
}

func (Azure) GetManagementEndpoint() string {
	return GetEnv("MANAGEMENT_ENDPOINT", "https://management.azure.com")
}
