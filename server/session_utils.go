package server

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/server/usersession"
)

// sessionCookieName is the cookie carrying the server-side session id
const sessionCookieName = "sessionId"

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// getOrCreateSession resolves the caller's session from the cookie,
// creating an empty one (and setting the cookie) when none exists.
func (s *Server) getOrCreateSession(w http.ResponseWriter, r *http.Request) (string, usersession.Session) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if session, err := s.sessions.Get(cookie.Value); err == nil {
			return cookie.Value, session
		}
	}

	sessionID := generateRandomString(32)
	session := usersession.Session{CreatedAt: time.Now()}
	if err := s.sessions.Upsert(sessionID, session); err != nil {
		log.Error().Err(err).Msg("failed to create session")
	}
	s.setSessionCookie(w, r, sessionID, 0)
	return sessionID, session
}

// currentSession resolves the caller's session without creating one.
func (s *Server) currentSession(r *http.Request) (string, *usersession.Session) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	session, err := s.sessions.Get(cookie.Value)
	if err != nil {
		return "", nil
	}
	return cookie.Value, &session
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// RequireSessionAuth redirects unauthenticated requests to sign-in.
func (s *Server) RequireSessionAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			_, session := s.currentSession(r)
			if session == nil || !session.Authenticated {
				http.Redirect(w, r, RouteSignin, http.StatusFound)
				return
			}
			next(w, r)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
