package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// IndexHandler lists the available actions.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, session := s.currentSession(r)

		data := map[string]any{
			"appName":         s.config.GetAppName(),
			"isAuthenticated": session != nil && session.Authenticated,
			"links": map[string]string{
				"signin":          RouteSignin,
				"acquireToken":    RouteAcquireToken,
				"createDaemonApp": RouteCreateDaemonApp,
				"assignRole":      RouteAssignRole,
				"signout":         RouteSignout,
			},
		}
		writeJSON(w, http.StatusOK, data)
	}
}

// IDClaimsHandler shows the signed-in user's ID-token claims.
func (s *Server) IDClaimsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, session := s.currentSession(r)

		claims := jwt.MapClaims{}
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(session.IDToken, claims); err != nil {
			http.Error(w, fmt.Sprintf("failed to parse ID token: %v", err), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"idTokenClaims": claims})
	}
}

// ProfileHandler lists the caller's subscriptions and the resource
// groups of the first one, the way an operator would eyeball access.
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, session := s.currentSession(r)

		subscriptions, err := s.management.Subscriptions(r.Context(), session.AccessToken)
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		profile := map[string]string{
			"subscriptions":  "",
			"tenant":         "",
			"resourceGroups": "",
		}
		var subscriptionList strings.Builder
		for _, sub := range subscriptions {
			fmt.Fprintf(&subscriptionList, "%s (%s) | ", sub.SubscriptionID, sub.DisplayName)
		}
		profile["subscriptions"] = subscriptionList.String()

		if len(subscriptions) > 0 {
			first := subscriptions[0]
			profile["tenant"] = first.TenantID

			groups, err := s.management.ResourceGroups(r.Context(), session.AccessToken, first.SubscriptionID)
			if err != nil {
				logError(r.Method, r.URL.Path, err.Error())
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			var groupList strings.Builder
			for _, g := range groups {
				fmt.Fprintf(&groupList, "name=%s location=%s , ", g.Name, g.Location)
			}
			profile["resourceGroups"] = groupList.String()
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"title":   "Subscriptions and resource groups API Call",
			"profile": profile,
		})
	}
}

// DaemonAppHandler shows the provisioning result stored on the session.
func (s *Server) DaemonAppHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, session := s.currentSession(r)

		writeJSON(w, http.StatusOK, map[string]any{
			"title":   "Daemon App Service Principal",
			"profile": session.DaemonApp,
			"next": map[string]string{
				"href":  RouteAssignRole,
				"title": "Assign Reader Role for Daemon App",
			},
		})
	}
}

// AssignRoleResultHandler shows the role-assignment result plus a CLI
// example wired up with the daemon app's credentials.
func (s *Server) AssignRoleResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, session := s.currentSession(r)

		var cliExample string
		if app := session.DaemonApp; app != nil {
			cliExample = fmt.Sprintf(
				"AZURE_CLIENT_SECRET=%s\ncartography -azure-sp-auth -azure-sync-all-subscriptions -azure-tenant-id %s -azure-client-id %s -azure-client-secret-env-var AZURE_CLIENT_SECRET",
				app.Password, app.Tenant, app.AppID,
			)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"title":      "Daemon App Service Principal",
			"profile":    session.RoleAssignment,
			"cliExample": cliExample,
		})
	}
}
