package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/authflow"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/azuremgmt"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/config"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/provisioning"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/server/usersession"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "production")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	flow       *authflow.Controller
	workflow   *provisioning.Workflow
	management azuremgmt.API
	sessions   usersession.Repo
}

func New(config config.Config, flow *authflow.Controller, workflow *provisioning.Workflow, management azuremgmt.API, sessions usersession.Repo) (*Server, error) {
	if flow == nil {
		return nil, fmt.Errorf("[Server New] auth flow controller is required")
	}
	if workflow == nil {
		return nil, fmt.Errorf("[Server New] provisioning workflow is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("[Server New] session repo is required")
	}

	s := &Server{
		mux:        http.NewServeMux(),
		config:     config,
		flow:       flow,
		workflow:   workflow,
		management: management,
		sessions:   sessions,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
