// Package msgraph is a minimal Microsoft Graph v1.0 client covering the
// directory operations the provisioning workflow needs. Calls are
// bearer-authenticated with the signed-in user's delegated access token.
package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultEndpoint = "https://graph.microsoft.com/v1.0"

// maxResponseBodySize limits response body reads
const maxResponseBodySize = 1 << 20 // 1MB

// API is the directory surface consumed by the provisioning workflow.
type API interface {
	// ServicePrincipalByAppID returns the service principal whose appId
	// matches, or nil when the filter matches nothing.
	ServicePrincipalByAppID(ctx context.Context, accessToken, appID string) (*ServicePrincipal, error)

	// ApplicationByDisplayName returns the first application with the
	// given display name, or nil when the filter matches nothing.
	ApplicationByDisplayName(ctx context.Context, accessToken, displayName string) (*Application, error)

	// CreateApplication registers a new application object with no key
	// credentials.
	CreateApplication(ctx context.Context, accessToken, displayName string) (*Application, error)

	// CreateServicePrincipal creates the service principal for an
	// application, enabled for sign-in.
	CreateServicePrincipal(ctx context.Context, accessToken, appID string) (*ServicePrincipal, error)

	// AddApplicationPassword issues a new password credential on the
	// application object. The plaintext secret is only present in this
	// one response.
	AddApplicationPassword(ctx context.Context, accessToken, objectID string, password PasswordRequest) (*PasswordCredential, error)
}

type Application struct {
	ObjectID    string `json:"id"`
	AppID       string `json:"appId"`
	DisplayName string `json:"displayName"`
}

type ServicePrincipal struct {
	ObjectID       string `json:"id"`
	AppID          string `json:"appId"`
	AppDisplayName string `json:"appDisplayName"`
	AccountEnabled bool   `json:"accountEnabled"`
}

type PasswordRequest struct {
	DisplayName string
	Start       time.Time
	End         time.Time
}

type PasswordCredential struct {
	KeyID         string `json:"keyId"`
	DisplayName   string `json:"displayName"`
	SecretText    string `json:"secretText"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
}

var _ API = (*Client)(nil)

type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a Graph client. An empty endpoint selects the public
// Graph v1.0 endpoint; tests point it at a local server.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}
}

func (c *Client) ServicePrincipalByAppID(ctx context.Context, accessToken, appID string) (*ServicePrincipal, error) {
	filter := url.Values{}
	filter.Set("$filter", fmt.Sprintf("appId eq '%s'", appID))

	var list struct {
		Value []ServicePrincipal `json:"value"`
	}
	err := c.do(ctx, apiRequest{
		method:      http.MethodGet,
		url:         c.endpoint + "/servicePrincipals?" + filter.Encode(),
		bearerToken: accessToken,
		operation:   "servicePrincipalByAppID",
	}, &list)
	if err != nil {
		return nil, err
	}
	if len(list.Value) == 0 {
		return nil, nil
	}
	return &list.Value[0], nil
}

func (c *Client) ApplicationByDisplayName(ctx context.Context, accessToken, displayName string) (*Application, error) {
	filter := url.Values{}
	filter.Set("$filter", fmt.Sprintf("displayName eq '%s'", displayName))

	var list struct {
		Value []Application `json:"value"`
	}
	err := c.do(ctx, apiRequest{
		method:      http.MethodGet,
		url:         c.endpoint + "/applications?" + filter.Encode(),
		bearerToken: accessToken,
		operation:   "applicationByDisplayName",
	}, &list)
	if err != nil {
		return nil, err
	}
	if len(list.Value) == 0 {
		return nil, nil
	}
	return &list.Value[0], nil
}

func (c *Client) CreateApplication(ctx context.Context, accessToken, displayName string) (*Application, error) {
	body := map[string]any{
		"displayName":    displayName,
		"keyCredentials": []any{},
	}

	var app Application
	err := c.do(ctx, apiRequest{
		method:      http.MethodPost,
		url:         c.endpoint + "/applications",
		body:        body,
		bearerToken: accessToken,
		operation:   "createApplication",
	}, &app)
	if err != nil {
		return nil, err
	}
	log.Info().Str("displayName", displayName).Str("appId", app.AppID).Msg("created application")
	return &app, nil
}

func (c *Client) CreateServicePrincipal(ctx context.Context, accessToken, appID string) (*ServicePrincipal, error) {
	body := map[string]any{
		"appId":          appID,
		"accountEnabled": true,
	}

	var sp ServicePrincipal
	err := c.do(ctx, apiRequest{
		method:      http.MethodPost,
		url:         c.endpoint + "/servicePrincipals",
		body:        body,
		bearerToken: accessToken,
		operation:   "createServicePrincipal",
	}, &sp)
	if err != nil {
		return nil, err
	}
	log.Info().Str("appId", appID).Str("spId", sp.ObjectID).Msg("created service principal")
	return &sp, nil
}

func (c *Client) AddApplicationPassword(ctx context.Context, accessToken, objectID string, password PasswordRequest) (*PasswordCredential, error) {
	body := map[string]any{
		"passwordCredential": map[string]any{
			"displayName":   password.DisplayName,
			"startDateTime": password.Start.UTC().Format(time.RFC3339),
			"endDateTime":   password.End.UTC().Format(time.RFC3339),
		},
	}

	var credential PasswordCredential
	err := c.do(ctx, apiRequest{
		method:      http.MethodPost,
		url:         c.endpoint + "/applications/" + objectID + "/addPassword",
		body:        body,
		bearerToken: accessToken,
		operation:   "addApplicationPassword",
	}, &credential)
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

// apiRequest describes one Graph call
type apiRequest struct {
	method      string
	url         string
	body        any // nil for GET
	bearerToken string
	operation   string // for error messages
}

// do executes the request and decodes a 2xx JSON response into out.
// Non-2xx responses propagate unchanged as errors; there is no retry.
func (c *Client) do(ctx context.Context, apiReq apiRequest, out any) error {
	var bodyReader io.Reader
	if apiReq.body != nil {
		data, err := json.Marshal(apiReq.body)
		if err != nil {
			return fmt.Errorf("%s: encode request body: %w", apiReq.operation, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, apiReq.method, apiReq.url, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", apiReq.operation, err)
	}
	if apiReq.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+apiReq.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", apiReq.operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("%s: read response body: %w", apiReq.operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s failed with status %d: %s", apiReq.operation, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", apiReq.operation, err)
		}
	}
	return nil
}
