// Package setup runs one login: listener, browser redirect, key output and
// env file updates.
package setup

import (
	"context"
	"errors"
	"fmt"

	"github.com/flotiq/flotiq-setup/internal/auth"
	"github.com/flotiq/flotiq-setup/internal/auth/constants"
	"github.com/flotiq/flotiq-setup/internal/auth/models"
	"github.com/flotiq/flotiq-setup/internal/config"
	"github.com/flotiq/flotiq-setup/internal/console"
	"github.com/flotiq/flotiq-setup/internal/envfile"
	"github.com/flotiq/flotiq-setup/internal/logger"
	"github.com/flotiq/flotiq-setup/internal/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RunnerParams holds the dependencies of a Runner
type RunnerParams struct {
	fx.In

	Setup     *config.SetupConfig
	Server    *config.ServerConfig
	Listener  server.ListenerConfig
	Initiator *auth.Initiator
	Reporter  console.Reporter
}

// Runner performs the setup flow
type Runner struct {
	setup     *config.SetupConfig
	server    *config.ServerConfig
	listener  server.ListenerConfig
	initiator *auth.Initiator
	report    console.Reporter
}

// NewRunner creates a Runner
func NewRunner(p RunnerParams) *Runner {
	return &Runner{
		setup:     p.Setup,
		server:    p.Server,
		listener:  p.Listener,
		initiator: p.Initiator,
		report:    p.Reporter,
	}
}

// Run waits for one login and returns the received keys by env variable name.
// Failures are *auth.Error values for callback problems, or wrapped I/O
// errors when the env files could not be written.
func (r *Runner) Run(ctx context.Context) (map[string]string, error) {
	scope := auth.ScopeFromFlags(r.setup.ROKey, r.setup.RWKey)
	req := models.LoginRequest{
		AuthEndpoint: r.setup.AuthURL,
		Port:         r.listener.Port,
		Scope:        scope,
	}

	// Reject a bad endpoint before the port is bound
	if _, err := auth.BuildLoginURL(req); err != nil {
		return nil, err
	}

	if r.server.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.server.Timeout)
		defer cancel()
	}

	logger.Info("Starting setup",
		zap.String("auth_url", r.setup.AuthURL),
		zap.String("scope", string(scope)),
		zap.Int("port", r.listener.Port),
	)

	var stopWaiting func()
	result, err := server.AwaitCallback(ctx, r.listener, func(redirectURI string) {
		r.report.Info("Server listening at %s", redirectURI)
		r.openLogin(req)
		stopWaiting = r.report.Waiting("Waiting for login in the browser...")
	})
	if stopWaiting != nil {
		stopWaiting()
	}
	if err != nil {
		return nil, err
	}
	r.report.Info("Server closed.")

	keys := make(map[string]string, 2)
	if scope.WantsReadOnly() {
		keys[constants.EnvAPIKey] = result.APIKeyReadOnly
		r.report.Key("Your FLOTIQ_API_KEY:", result.APIKeyReadOnly)
	}
	if scope.WantsReadWrite() {
		keys[constants.EnvRWAPIKey] = result.APIKeyReadWrite
		r.report.Key("Your FLOTIQ_RW_API_KEY:", result.APIKeyReadWrite)
	}

	if r.setup.NoStore {
		logger.Info("Skipping env files", zap.Bool("no_store", true))
		return keys, nil
	}

	if err := envfile.Persist(Entries(result, scope, r.setup.EnvFiles), r.report); err != nil {
		return keys, fmt.Errorf("failed to save keys: %w", err)
	}

	r.report.Success("Your .env files have been adjusted with your Flotiq API keys. You can close this terminal.")
	return keys, nil
}

func (r *Runner) openLogin(req models.LoginRequest) {
	loginURL, err := r.initiator.Open(req)
	switch {
	case errors.Is(err, auth.ErrBrowserUnavailable):
		r.report.Warning("Could not open browser automatically. Please visit the following URL manually:")
		r.report.Info("%s", loginURL)
	case err != nil:
		// The URL was validated before binding, so this is unexpected
		logger.Error("Failed to build login URL", zap.Error(err))
	default:
		r.report.Info("If your browser didn't open automatically, visit: %s", loginURL)
	}
}

// Entries lists the env variables written for a result: the read-only key as
// GATSBY_FLOTIQ_API_KEY and FLOTIQ_API_KEY, the read-write key as
// FLOTIQ_RW_API_KEY.
func Entries(result *models.CallbackResult, scope models.Scope, files []string) []envfile.Entry {
	var entries []envfile.Entry
	if scope.WantsReadOnly() {
		entries = append(entries,
			envfile.Entry{Key: constants.EnvGatsbyAPIKey, Value: result.APIKeyReadOnly, Files: files},
			envfile.Entry{Key: constants.EnvAPIKey, Value: result.APIKeyReadOnly, Files: files},
		)
	}
	if scope.WantsReadWrite() {
		entries = append(entries,
			envfile.Entry{Key: constants.EnvRWAPIKey, Value: result.APIKeyReadWrite, Files: files},
		)
	}
	return entries
}

// Module provides the setup Runner
var Module = fx.Module("setup",
	fx.Provide(NewRunner),
)
