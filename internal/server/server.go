// Package server runs the short-lived loopback listener that receives the
// login callback.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/flotiq/flotiq-setup/internal/auth"
	"github.com/flotiq/flotiq-setup/internal/auth/constants"
	"github.com/flotiq/flotiq-setup/internal/auth/handlers"
	"github.com/flotiq/flotiq-setup/internal/auth/middleware"
	"github.com/flotiq/flotiq-setup/internal/auth/models"
	"github.com/flotiq/flotiq-setup/internal/config"
	"github.com/flotiq/flotiq-setup/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for the response to drain
	shutdownTimeout = 5 * time.Second
)

// ListenerConfig holds what a callback listener needs for one login
type ListenerConfig struct {
	Host              string
	Port              int
	Scope             models.Scope
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// NewListenerConfig derives the listener settings from the loaded configuration
func NewListenerConfig(srv *config.ServerConfig, setup *config.SetupConfig) ListenerConfig {
	return ListenerConfig{
		Host:              srv.Host,
		Port:              srv.Port,
		Scope:             auth.ScopeFromFlags(setup.ROKey, setup.RWKey),
		ReadHeaderTimeout: srv.ReadHeaderTimeout,
		IdleTimeout:       srv.IdleTimeout,
	}
}

// CallbackListener owns the socket, server and handler of one login attempt.
// Nothing in it is shared between attempts.
type CallbackListener struct {
	listener  net.Listener
	server    *http.Server
	callback  *handlers.Callback
	port      int
	errChan   chan error
	serveDone chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Listen binds the callback port and starts serving. The port is bound when
// Listen returns, so the browser may be sent to the login page right after.
func Listen(cfg ListenerConfig) (*CallbackListener, error) {
	if _, err := cfg.Scope.KeyType(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, auth.NewError(auth.KindLocalServer, fmt.Errorf("failed to listen on %s: %w", addr, err))
	}

	callback := handlers.NewCallback(cfg.Scope)
	mux := http.NewServeMux()
	mux.Handle(constants.CallbackPath, callback)

	l := &CallbackListener{
		listener: ln,
		server: &http.Server{
			Handler:           middleware.LogRequests(middleware.SecureHeaders(mux)),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		callback:  callback,
		port:      ln.Addr().(*net.TCPAddr).Port,
		errChan:   make(chan error, 1),
		serveDone: make(chan struct{}),
	}

	go func() {
		defer close(l.serveDone)
		logger.Info("Callback listener started", zap.String("address", ln.Addr().String()))
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.errChan <- err
		}
	}()

	return l, nil
}

// Port returns the bound port
func (l *CallbackListener) Port() int {
	return l.port
}

// RedirectURI returns the address the login page must redirect to
func (l *CallbackListener) RedirectURI() string {
	return auth.RedirectURI(l.port)
}

// Wait blocks until the callback produced an outcome, the server failed or
// ctx is done, then closes the listener. The response to the callback has
// been written out by the time Wait returns.
func (l *CallbackListener) Wait(ctx context.Context) (*models.CallbackResult, error) {
	var (
		result *models.CallbackResult
		err    error
	)

	select {
	case out := <-l.callback.Done():
		result, err = out.Result, out.Err
	case serveErr := <-l.errChan:
		err = auth.NewError(auth.KindLocalServer, fmt.Errorf("callback server error: %w", serveErr))
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = auth.NewError(auth.KindTimedOut, ctx.Err())
		} else {
			err = fmt.Errorf("waiting for callback: %w", ctx.Err())
		}
	}

	if closeErr := l.Close(); closeErr != nil && err == nil {
		return nil, auth.NewError(auth.KindLocalServer, closeErr)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close stops accepting connections, lets the in-flight response finish and
// releases the port. It is safe to call more than once.
func (l *CallbackListener) Close() error {
	l.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := l.server.Shutdown(ctx); err != nil {
			l.closeErr = fmt.Errorf("callback server shutdown error: %w", err)
			_ = l.server.Close()
		}
		_ = l.listener.Close()
		<-l.serveDone

		logger.Info("Callback listener closed", zap.Int("port", l.port))
	})
	return l.closeErr
}

// AwaitCallback binds the listener, calls ready with the redirect URI and
// waits for the single callback.
func AwaitCallback(ctx context.Context, cfg ListenerConfig, ready func(redirectURI string)) (*models.CallbackResult, error) {
	l, err := Listen(cfg)
	if err != nil {
		return nil, err
	}

	if ready != nil {
		ready(l.RedirectURI())
	}

	return l.Wait(ctx)
}

// Module provides the listener configuration
var Module = fx.Module("callback_server",
	fx.Provide(
		NewListenerConfig,
	),
)
