package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/sysadmiral-group/azure-identity-multitenant-sample/authflow"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/azuremgmt"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/internal/config"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/msgraph"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/provisioning"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets/awsstore"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/secrets/filestore"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/server"
	"github.com/sysadmiral-group/azure-identity-multitenant-sample/server/usersession"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	srv, err := newServer(c)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// newServer wires the process-wide singletons: one auth flow controller,
// one secret-storage backend, one provisioning workflow. The storage
// backend is selected exactly once here and injected.
func newServer(c config.Config) (*server.Server, error) {
	flow, err := authflow.New(authflow.ProviderConfig{
		ClientID:      c.GetClientID(),
		ClientSecret:  c.GetClientSecret(),
		CloudInstance: c.GetCloudInstance(),
		TenantID:      c.GetTenantID(),
		RedirectURI:   c.GetRedirectURI(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating auth flow controller: %w", err)
	}

	store, err := newSecretStore(c)
	if err != nil {
		return nil, fmt.Errorf("creating secret store: %w", err)
	}

	management := azuremgmt.New(c.GetManagementEndpoint())

	workflow, err := provisioning.New(provisioning.Deps{
		Directory:  msgraph.New(c.GetGraphEndpoint()),
		Management: management,
		Store:      store,
	})
	if err != nil {
		return nil, fmt.Errorf("creating provisioning workflow: %w", err)
	}

	return server.New(c, flow, workflow, management, usersession.NewInMemoryRepo())
}

func newSecretStore(c config.Config) (secrets.Store, error) {
	if c.GetSecretStorage() == config.StorageLocalFiles {
		return filestore.New(c.GetDataFolder()), nil
	}
	return awsstore.New(context.Background())
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
