package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/flotiq/flotiq-setup/internal/auth"
	"github.com/flotiq/flotiq-setup/internal/config"
	"github.com/flotiq/flotiq-setup/internal/console"
	"github.com/flotiq/flotiq-setup/internal/setup"
)

func testConfig() *config.Config {
	return &config.Config{
		Setup: config.SetupConfig{
			AuthURL:  config.DefaultAuthURL,
			ROKey:    true,
			Silent:   true,
			EnvFiles: config.DefaultEnvFiles(),
		},
		Server: config.ServerConfig{
			Host:              "127.0.0.1",
			Port:              config.DefaultPort,
			Timeout:           5 * time.Minute,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Second,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "console"},
	}
}

func TestRenderConfig(t *testing.T) {
	out, err := renderConfig(testConfig())
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, "5m0s", decoded["server"]["timeout"])
	assert.Equal(t, "10s", decoded["server"]["read_header_timeout"])
	assert.Equal(t, config.DefaultPort, decoded["server"]["port"])
	assert.Equal(t, config.DefaultAuthURL, decoded["setup"]["auth_url"])
	assert.Equal(t, "error", decoded["logging"]["level"])
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rejected",
			err:  auth.NewError(auth.KindUserRejected, nil),
			want: "User did not consent to provide the keys. Authorization process has been terminated.",
		},
		{
			name: "failed",
			err:  fmt.Errorf("callback: %w", auth.NewError(auth.KindAuthFailed, errors.New("missing api_key"))),
			want: "A system error occurred during the authorization attempt. Please try again later.",
		},
		{
			name: "timed out",
			err:  auth.NewError(auth.KindTimedOut, context.DeadlineExceeded),
			want: "Timed out waiting for the browser to complete the login.",
		},
		{
			name: "interrupted",
			err:  fmt.Errorf("waiting for callback: %w", context.Canceled),
			want: "A system error occurred. Please try again later.",
		},
		{
			name: "other",
			err:  errors.New("failed to save keys: disk full"),
			want: "A system error occurred: failed to save keys: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureMessage(tt.err))
		})
	}
}

func TestNewApp(t *testing.T) {
	var (
		runner   *setup.Runner
		reporter console.Reporter
	)
	app := newApp(testConfig(), &runner, &reporter)
	require.NoError(t, app.Err())
	assert.NotNil(t, runner)
	assert.IsType(t, console.Nop{}, reporter)
}
