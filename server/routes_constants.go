package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Auth Routes - flow initiation
	RouteSignin          = "/auth/signin"
	RouteAcquireToken    = "/auth/acquire-token"
	RouteCreateDaemonApp = "/auth/create-daemon-app"
	RouteAssignRole      = "/auth/assign-role"

	// Auth Routes - provider callback and sign-out
	RouteAuthRedirect = "/auth/redirect"
	RouteSignout      = "/auth/signout"

	// Azure result views (require an authenticated session)
	RouteAzureID         = "/azure/id"
	RouteAzureProfile    = "/azure/profile"
	RouteAzureDaemonApp  = "/azure/daemon-app"
	RouteAzureAssignRole = "/azure/assign-role"
)
