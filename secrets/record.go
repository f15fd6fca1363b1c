package secrets

import "strings"

// DaemonAppRecord is the persisted credential bundle for one
// (tenant, daemon-app-name) pair. The password is plaintext: it is only
// ever returned once by the directory, so losing it means re-provisioning.
type DaemonAppRecord struct {
	Tenant             string `json:"tenant"`
	AppID              string `json:"appId"`
	AppName            string `json:"appName"`
	Password           string `json:"password"`
	ServicePrincipalID string `json:"spId"`

	// Backend-specific locators, attached by the store that wrote the record.
	CredentialsFilePath string `json:"_credentials_file_path,omitempty"`
	AWSSecretName       string `json:"_awsSecretName,omitempty"`

	// AlreadyExists is set to "true" only when the record was read back
	// from storage, signalling that no new credential was minted.
	AlreadyExists string `json:"alreadyExists,omitempty"`
}

// Existed reports whether the record came from storage rather than a
// fresh provisioning run.
func (r *DaemonAppRecord) Existed() bool {
	return r != nil && r.AlreadyExists == "true"
}

// NormalizeAppName makes an application display name safe for use in
// file names and secret identifiers.
func NormalizeAppName(appName string) string {
	return strings.ReplaceAll(appName, " ", "_")
}
