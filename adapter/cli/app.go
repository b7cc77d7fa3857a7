package cli

import (
	"errors"
	"fmt"

	internalApp "github.com/felixgeelhaar/beaver/internal/app"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
)

// ErrNotInitialized is returned by commands that need the router but run
// without one.
var ErrNotInitialized = errors.New("application not initialized - storage connection required")

// App holds the CLI application dependencies.
type App struct {
	*internalApp.Container

	// Caller is the account commands act as when --as is not given.
	Caller sharedDomain.Address
}

// NewApp creates a new CLI application backed by the container.
func NewApp(container *internalApp.Container) *App {
	return &App{Container: container}
}

var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the global application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil || app.Container == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// CallerAddress resolves the account the current command acts as.
func CallerAddress() (sharedDomain.Address, error) {
	if callerFlag != "" {
		caller, err := sharedDomain.ParseAddress(callerFlag)
		if err != nil {
			return sharedDomain.ZeroAddress, fmt.Errorf("invalid --as: %w", err)
		}
		return caller, nil
	}
	if app != nil && !app.Caller.IsZero() {
		return app.Caller, nil
	}
	return sharedDomain.ZeroAddress, errors.New("no caller: pass --as or set BEAVER_CALLER")
}
