package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/authflow"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/errors"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/provisioning"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/server/usersession"
)

// SigninHandler starts a plain sign-in flow with no follow-up intent.
func (s *Server) SigninHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.redirectToAuthCodeURL(w, r, authflow.BeginOptions{
			RedirectTo: RouteIndex,
			Scopes:     s.config.GetSigninScopes(),
			Intent:     authflow.IntentNone,
		})
	}
}

// AcquireTokenHandler starts a flow that leaves a management-scoped
// access token in the session for the profile view.
func (s *Server) AcquireTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.redirectToAuthCodeURL(w, r, authflow.BeginOptions{
			RedirectTo: RouteAzureProfile,
			Scopes:     s.config.GetManagementScopes(),
			Intent:     authflow.IntentNone,
		})
	}
}

// CreateDaemonAppFlowHandler starts the daemon-app provisioning flow.
func (s *Server) CreateDaemonAppFlowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.redirectToAuthCodeURL(w, r, authflow.BeginOptions{
			RedirectTo: RouteAzureDaemonApp,
			Scopes:     s.config.GetGraphScopes(),
			Intent:     authflow.IntentCreateDaemonApp,
		})
	}
}

// AssignRoleFlowHandler starts the role-assignment flow for a
// previously provisioned daemon app.
func (s *Server) AssignRoleFlowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.redirectToAuthCodeURL(w, r, authflow.BeginOptions{
			RedirectTo: RouteAzureAssignRole,
			Scopes:     []string{"https://management.azure.com/.default"},
			Intent:     authflow.IntentAssignRole,
		})
	}
}

// redirectToAuthCodeURL triggers the first leg of the auth code flow:
// CSRF and PKCE material is persisted on the session before the
// redirect response is issued.
func (s *Server) redirectToAuthCodeURL(w http.ResponseWriter, r *http.Request, opts authflow.BeginOptions) {
	sessionID, session := s.getOrCreateSession(w, r)

	authURL, flowState, err := s.flow.Begin(opts)
	if err != nil {
		logError(r.Method, r.URL.Path, err.Error())
		http.Error(w, "failed to start authorization flow", http.StatusInternalServerError)
		return
	}

	session.Flow = flowState
	if err := s.sessions.Upsert(sessionID, session); err != nil {
		logError(r.Method, r.URL.Path, err.Error())
		http.Error(w, "failed to persist session", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// AuthRedirectHandler is the provider's form_post callback: it verifies
// state, exchanges the code for tokens and dispatches the intent that
// was requested when the flow started.
func (s *Server) AuthRedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}

		input := authflow.CallbackInput{
			State:            r.FormValue("state"),
			Code:             r.FormValue("code"),
			ErrorParam:       r.FormValue("error"),
			ErrorDescription: r.FormValue("error_description"),
		}

		sessionID, session := s.currentSession(r)
		var flowState *authflow.FlowState
		if session != nil {
			flowState = session.Flow
		}

		state, tokens, err := s.flow.Callback(r.Context(), flowState, input)
		if err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			http.Error(w, err.Error(), callbackErrorStatus(err))
			return
		}

		session.Authenticated = true
		session.AccessToken = tokens.AccessToken
		session.IDToken = tokens.IDToken
		session.Account = tokens.Account

		if err := s.dispatchIntent(r, session, state); err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := s.sessions.Upsert(sessionID, *session); err != nil {
			http.Error(w, "failed to persist session", http.StatusInternalServerError)
			return
		}

		redirectTo := state.RedirectTo
		if redirectTo == "" {
			redirectTo = RouteIndex
		}
		http.Redirect(w, r, redirectTo, http.StatusFound)
	}
}

// dispatchIntent maps the decoded intent to at most one provisioning
// call and attaches the result to the session.
func (s *Server) dispatchIntent(r *http.Request, session *usersession.Session, state *authflow.State) error {
	tokens := provisioning.UserTokens{
		AccessToken: session.AccessToken,
		TenantID:    session.Account.TenantID,
		ClientAppID: session.Account.ClientAppID,
	}

	switch state.Intent {
	case "", authflow.IntentNone:
		return nil
	case authflow.IntentCreateDaemonApp:
		record, err := s.workflow.CreateDaemonApp(r.Context(), tokens)
		if err != nil {
			return err
		}
		session.DaemonApp = record
		return nil
	case authflow.IntentAssignRole:
		result, err := s.workflow.AssignDaemonAppRole(r.Context(), tokens, session.DaemonApp)
		if err != nil {
			return err
		}
		session.RoleAssignment = result
		return nil
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnknownIntent, state.Intent)
	}
}

// callbackErrorStatus maps protocol failures to 400s; everything else
// (exchange or dispatch trouble) is a 500.
func callbackErrorStatus(err error) int {
	switch {
	case errors.Is(err, errors.ErrStateMissing), errors.Is(err, errors.ErrCSRFMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// SignoutHandler destroys the session and redirects to the provider's
// logout endpoint with the configured post-logout redirect.
func (s *Server) SignoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID, session := s.currentSession(r); session != nil {
			if err := s.sessions.Delete(sessionID); err != nil {
				log.Error().Err(err).Msg("failed to delete session")
			}
		}
		s.clearSessionCookie(w, r)

		logoutURI := fmt.Sprintf("%s/%s/oauth2/v2.0/logout?post_logout_redirect_uri=%s",
			s.config.GetCloudInstance(),
			s.config.GetTenantID(),
			url.QueryEscape(s.config.GetPostLogoutRedirectURI()),
		)
		http.Redirect(w, r, logoutURI, http.StatusFound)
	}
}
