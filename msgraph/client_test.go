package msgraph_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/msgraph"
)

const testAccessToken = "delegated-access-token"

type recordedRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

// graphFixture records requests and serves canned responses per path.
type graphFixture struct {
	server    *httptest.Server
	requests  []recordedRequest
	responses map[string]any
	status    int
}

func newGraphFixture(t *testing.T) *graphFixture {
	t.Helper()

	f := &graphFixture{responses: make(map[string]any), status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded := recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&recorded.body)
		}
		f.requests = append(f.requests, recorded)

		response, ok := f.responses[r.URL.Path]
		if !ok {
			http.Error(w, `{"error":{"code":"Request_ResourceNotFound"}}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *graphFixture) last() recordedRequest {
	return f.requests[len(f.requests)-1]
}

func TestServicePrincipalByAppID(t *testing.T) {
	f := newGraphFixture(t)
	f.responses["/servicePrincipals"] = map[string]any{
		"value": []map[string]any{
			{"id": "sp-object-1", "appId": "client-1", "appDisplayName": "ClientCo"},
		},
	}
	client := msgraph.New(f.server.URL)

	sp, err := client.ServicePrincipalByAppID(context.Background(), testAccessToken, "client-1")
	require.NoError(t, err)
	require.NotNil(t, sp)
	require.Equal(t, "sp-object-1", sp.ObjectID)
	require.Equal(t, "ClientCo", sp.AppDisplayName)

	last := f.last()
	require.Equal(t, http.MethodGet, last.method)
	require.Equal(t, "Bearer "+testAccessToken, last.auth)
	require.Contains(t, last.query, "%24filter=appId+eq+%27client-1%27")
}

func TestServicePrincipalByAppIDEmptyResult(t *testing.T) {
	f := newGraphFixture(t)
	f.responses["/servicePrincipals"] = map[string]any{"value": []map[string]any{}}
	client := msgraph.New(f.server.URL)

	sp, err := client.ServicePrincipalByAppID(context.Background(), testAccessToken, "unknown")
	require.NoError(t, err)
	require.Nil(t, sp)
}

func TestApplicationByDisplayName(t *testing.T) {
	f := newGraphFixture(t)
	f.responses["/applications"] = map[string]any{
		"value": []map[string]any{
			{"id": "app-object-1", "appId": "daemon-client-1", "displayName": "ClientCo-API"},
		},
	}
	client := msgraph.New(f.server.URL)

	app, err := client.ApplicationByDisplayName(context.Background(), testAccessToken, "ClientCo-API")
	require.NoError(t, err)
	require.NotNil(t, app)
	require.Equal(t, "daemon-client-1", app.AppID)
	require.Contains(t, f.last().query, "%24filter=displayName+eq+%27ClientCo-API%27")
}

func TestCreateApplication(t *testing.T) {
	f := newGraphFixture(t)
	f.responses["/applications"] = map[string]any{
		"id": "app-object-1", "appId": "daemon-client-1", "displayName": "ClientCo-API",
	}
	f.status = http.StatusCreated
	client := msgraph.New(f.server.URL)

	app, err := client.CreateApplication(context.Background(), testAccessToken, "ClientCo-API")
	require.NoError(t, err)
	require.Equal(t, "daemon-client-1", app.AppID)

	last := f.last()
	require.Equal(t, http.MethodPost, last.method)
	require.Equal(t, "ClientCo-API", last.body["displayName"])
	require.Equal(t, []any{}, last.body["keyCredentials"])
}

func TestCreateServicePrincipal(t *testing.T) {
	f := newGraphFixture(t)
	f.responses["/servicePrincipals"] = map[string]any{
		"id": "sp-object-2", "appId": "daemon-client-1", "accountEnabled": true,
	}
	f.status = http.StatusCreated
	client := msgraph.New(f.server.URL)

	sp, err := client.CreateServicePrincipal(context.Background(), testAccessToken, "daemon-client-1")
	require.NoError(t, err)
	require.Equal(t, "sp-object-2", sp.ObjectID)

	last := f.last()
	require.Equal(t, "daemon-client-1", last.body["appId"])
	require.Equal(t, true, last.body["accountEnabled"])
}

func TestAddApplicationPassword(t *testing.T) {
	f := newGraphFixture(t)
	f.responses["/applications/app-object-1/addPassword"] = map[string]any{
		"keyId":       "key-1",
		"displayName": "registrator",
		"secretText":  "generated-secret",
	}
	client := msgraph.New(f.server.URL)

	start := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	credential, err := client.AddApplicationPassword(context.Background(), testAccessToken, "app-object-1", msgraph.PasswordRequest{
		DisplayName: "registrator",
		Start:       start,
		End:         start.AddDate(1, 0, 0),
	})
	require.NoError(t, err)
	require.Equal(t, "generated-secret", credential.SecretText)

	body := f.last().body["passwordCredential"].(map[string]any)
	require.Equal(t, "registrator", body["displayName"])
	require.Equal(t, "2026-08-31T12:00:00Z", body["startDateTime"])
	require.Equal(t, "2027-08-31T12:00:00Z", body["endDateTime"])
}

func TestNonSuccessStatusPropagates(t *testing.T) {
	f := newGraphFixture(t)
	client := msgraph.New(f.server.URL)

	_, err := client.ApplicationByDisplayName(context.Background(), testAccessToken, "missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")
	require.Contains(t, err.Error(), "Request_ResourceNotFound")
}
