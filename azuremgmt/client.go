// Package azuremgmt is a minimal Azure Resource Manager client covering
// subscription listing, resource-group listing and role assignment.
package azuremgmt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/errors"
)

const DefaultEndpoint = "https://management.azure.com"

const (
	subscriptionsAPIVersion  = "2020-01-01"
	roleAssignmentAPIVersion = "2022-04-01"

	// roleAssignmentExistsCode is the one conflict code treated as
	// success: the assignment is already in place.
	roleAssignmentExistsCode = "RoleAssignmentExists"
)

const maxResponseBodySize = 1 << 20 // 1MB

// API is the management surface consumed by the provisioning workflow
// and the profile page.
type API interface {
	// Subscriptions lists the subscriptions visible to the caller.
	Subscriptions(ctx context.Context, accessToken string) ([]Subscription, error)

	// ResourceGroups lists the resource groups of one subscription.
	ResourceGroups(ctx context.Context, accessToken, subscriptionID string) ([]ResourceGroup, error)

	// CreateRoleAssignment binds a principal to a role definition on a
	// subscription. When the provider reports the assignment already
	// exists, errors.ErrRoleAlreadyExists is returned.
	CreateRoleAssignment(ctx context.Context, accessToken string, assignment RoleAssignmentRequest) error
}

type Subscription struct {
	SubscriptionID string `json:"subscriptionId"`
	TenantID       string `json:"tenantId"`
	DisplayName    string `json:"displayName"`
}

type ResourceGroup struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type RoleAssignmentRequest struct {
	SubscriptionID   string
	AssignmentName   string // client-generated, fresh per call
	RoleDefinitionID string // full ARM id
	PrincipalID      string // service principal object id
}

var _ API = (*Client)(nil)

type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a management client. An empty endpoint selects the public
// ARM endpoint; tests point it at a local server.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}
}

func (c *Client) Subscriptions(ctx context.Context, accessToken string) ([]Subscription, error) {
	url := fmt.Sprintf("%s/subscriptions?api-version=%s", c.endpoint, subscriptionsAPIVersion)

	var list struct {
		Value []Subscription `json:"value"`
	}
	if err := c.get(ctx, accessToken, url, "listSubscriptions", &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

func (c *Client) ResourceGroups(ctx context.Context, accessToken, subscriptionID string) ([]ResourceGroup, error) {
	url := fmt.Sprintf("%s/subscriptions/%s/resourcegroups?api-version=%s",
		c.endpoint, subscriptionID, subscriptionsAPIVersion)

	var list struct {
		Value []ResourceGroup `json:"value"`
	}
	if err := c.get(ctx, accessToken, url, "listResourceGroups", &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

func (c *Client) CreateRoleAssignment(ctx context.Context, accessToken string, assignment RoleAssignmentRequest) error {
	url := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Authorization/roleAssignments/%s?api-version=%s",
		c.endpoint, assignment.SubscriptionID, assignment.AssignmentName, roleAssignmentAPIVersion)

	body, err := json.Marshal(map[string]any{
		"properties": map[string]any{
			"roleDefinitionId": assignment.RoleDefinitionID,
			"principalId":      assignment.PrincipalID,
			"principalType":    "ServicePrincipal",
		},
	})
	if err != nil {
		return fmt.Errorf("createRoleAssignment: encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("createRoleAssignment: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("createRoleAssignment: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("createRoleAssignment: read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	if code := errorCode(respBody); code == roleAssignmentExistsCode {
		log.Info().
			Str("subscriptionId", assignment.SubscriptionID).
			Str("principalId", assignment.PrincipalID).
			Msg("role assignment already exists")
		return errors.ErrRoleAlreadyExists
	}

	return fmt.Errorf("createRoleAssignment failed with status %d: %s", resp.StatusCode, string(respBody))
}

func (c *Client) get(ctx context.Context, accessToken, url, operation string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("%s: read response body: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s failed with status %d: %s", operation, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}

// errorCode extracts the provider error code from an ARM error body.
func errorCode(body []byte) string {
	var apiErr struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return ""
	}
	return apiErr.Error.Code
}
