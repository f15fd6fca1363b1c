package server

import (
	"fmt"
	"log"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleware()...))

	// Flow initiation: each route maps to a fixed {redirectTo, scopes, intent} triple
	s.RegisterRouteFunc("GET "+RouteSignin, ChainMiddleware(s.SigninHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAcquireToken, ChainMiddleware(s.AcquireTokenHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteCreateDaemonApp, ChainMiddleware(s.CreateDaemonAppFlowHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAssignRole, ChainMiddleware(s.AssignRoleFlowHandler(), s.HTMLMiddleware()...))

	// Provider callback (form_post response mode) and sign-out
	s.RegisterRouteFunc("POST "+RouteAuthRedirect, ChainMiddleware(s.AuthRedirectHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteSignout, ChainMiddleware(s.SignoutHandler(), s.HTMLMiddleware()...))

	// Result views, gated on an authenticated session
	s.RegisterRouteFunc("GET "+RouteAzureID, ChainMiddleware(s.IDClaimsHandler(), s.HTMLMiddleware(s.RequireSessionAuth())...))
	s.RegisterRouteFunc("GET "+RouteAzureProfile, ChainMiddleware(s.ProfileHandler(), s.HTMLMiddleware(s.RequireSessionAuth())...))
	s.RegisterRouteFunc("GET "+RouteAzureDaemonApp, ChainMiddleware(s.DaemonAppHandler(), s.HTMLMiddleware(s.RequireSessionAuth())...))
	s.RegisterRouteFunc("GET "+RouteAzureAssignRole, ChainMiddleware(s.AssignRoleResultHandler(), s.HTMLMiddleware(s.RequireSessionAuth())...))
}

func logError(method, path, error string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	errorString := Red + error + ResetColor
	log.Printf("[%-19s] %s %s\n", displayMethod, path, errorString)
}
