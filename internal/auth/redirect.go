// Package auth builds the Flotiq login redirect and classifies login outcomes.
package auth

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/flotiq/flotiq-setup/internal/auth/constants"
	"github.com/flotiq/flotiq-setup/internal/auth/models"
	"github.com/flotiq/flotiq-setup/internal/logger"
	"go.uber.org/zap"
)

// ErrBrowserUnavailable means the login URL could not be opened automatically
var ErrBrowserUnavailable = errors.New("could not open browser")

// ScopeFromFlags maps the --ro-key/--rw-key switches onto a scope.
// Read-only is the fallback when only rw is off.
func ScopeFromFlags(roKey, rwKey bool) models.Scope {
	switch {
	case roKey && rwKey:
		return models.ScopeBoth
	case rwKey:
		return models.ScopeReadWrite
	default:
		return models.ScopeReadOnly
	}
}

// RedirectURI returns the callback address the login page redirects to
func RedirectURI(port int) string {
	return fmt.Sprintf("http://localhost:%d%s", port, constants.CallbackPath)
}

// BuildLoginURL returns the login page URL for req. Query parameters already
// present on the endpoint are kept.
func BuildLoginURL(req models.LoginRequest) (string, error) {
	u, err := url.Parse(req.AuthEndpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse auth endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("auth endpoint must be an absolute http(s) URL: %q", req.AuthEndpoint)
	}
	if req.Port < 1 || req.Port > 65535 {
		return "", fmt.Errorf("invalid callback port: %d", req.Port)
	}

	keyType, err := req.Scope.KeyType()
	if err != nil {
		return "", err
	}

	query := u.Query()
	query.Set(constants.ParamResponseType, constants.ResponseType)
	query.Set(constants.ParamKeyType, keyType)
	query.Set(constants.ParamApplicationName, constants.ApplicationName)
	query.Set(constants.ParamRedirectURI, RedirectURI(req.Port))

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Initiator sends the user to the login page
type Initiator struct {
	browser Browser
}

// NewInitiator creates an Initiator that opens URLs with browser
func NewInitiator(browser Browser) *Initiator {
	return &Initiator{browser: browser}
}

// Open builds the login URL and hands it to the browser. The URL is returned
// even when the browser fails, wrapped in ErrBrowserUnavailable, so the caller
// can print it for manual use.
func (i *Initiator) Open(req models.LoginRequest) (string, error) {
	loginURL, err := BuildLoginURL(req)
	if err != nil {
		return "", err
	}

	logger.Debug("Opening login page", zap.String("url", loginURL))

	if err := i.browser.Open(loginURL); err != nil {
		logger.Warn("Failed to open browser", zap.Error(err))
		return loginURL, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}
	return loginURL, nil
}
