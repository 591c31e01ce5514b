package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("flotiq-setup", pflag.ContinueOnError)
	InitFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(newFlags(t), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultAuthURL, cfg.Setup.AuthURL)
	assert.True(t, cfg.Setup.ROKey)
	assert.False(t, cfg.Setup.RWKey)
	assert.False(t, cfg.Setup.Silent)
	assert.False(t, cfg.Setup.NoStore)
	assert.Equal(t, []string{".env", ".env.development"}, cfg.Setup.EnvFiles)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Server.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 2*time.Second, cfg.Server.IdleTimeout)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_WithoutFlags(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.True(t, cfg.Setup.ROKey)
}

func TestLoad_Flags(t *testing.T) {
	isolate(t)

	fs := newFlags(t,
		"-a", "https://example.com/login",
		"-w",
		"-s",
		"-n",
		"--port", "6000",
		"--timeout", "90s",
		"--env-file", "site/.env",
		"--env-file", "site/.env.local",
		"--log-level", "debug",
	)

	cfg, err := Load(fs, "")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/login", cfg.Setup.AuthURL)
	assert.True(t, cfg.Setup.ROKey)
	assert.True(t, cfg.Setup.RWKey)
	assert.True(t, cfg.Setup.Silent)
	assert.True(t, cfg.Setup.NoStore)
	assert.Equal(t, []string{"site/.env", "site/.env.local"}, cfg.Setup.EnvFiles)
	assert.Equal(t, 6000, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("FLOTIQ_SETUP_SERVER_PORT", "7001")
	t.Setenv("FLOTIQ_SETUP_LOGGING_LEVEL", "info")

	cfg, err := Load(newFlags(t), "")
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)

	// Flags win over the environment
	cfg, err = Load(newFlags(t, "--port", "7002"), "")
	require.NoError(t, err)
	assert.Equal(t, 7002, cfg.Server.Port)
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "flotiq-setup.yaml")
	content := `setup:
  rw_key: true
  env_files:
    - .env.production
server:
  port: 6100
  timeout: 30s
logging:
  level: warn
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(newFlags(t), path)
	require.NoError(t, err)

	assert.True(t, cfg.Setup.RWKey)
	assert.Equal(t, []string{".env.production"}, cfg.Setup.EnvFiles)
	assert.Equal(t, 6100, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_SearchesHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "flotiq")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flotiq-setup.yaml"), []byte("server:\n  port: 6200\n"), 0o644))

	cfg, err := Load(newFlags(t), "")
	require.NoError(t, err)
	assert.Equal(t, 6200, cfg.Server.Port)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	isolate(t)

	_, err := Load(newFlags(t), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "relative auth url",
			args:    []string{"--authUrl", "not a url"},
			wantMsg: "AuthURL",
		},
		{
			name:    "port zero",
			args:    []string{"--port", "0"},
			wantMsg: "Port",
		},
		{
			name:    "port out of range",
			args:    []string{"--port", "70000"},
			wantMsg: "Port",
		},
		{
			name:    "unknown log level",
			args:    []string{"--log-level", "verbose"},
			wantMsg: "Level",
		},
		{
			name:    "no scope",
			args:    []string{"--ro-key=false"},
			wantErr: ErrNoScope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			_, err := Load(newFlags(t, tt.args...), "")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestServerConfig_MarshalYAML(t *testing.T) {
	out, err := ServerConfig{
		Host:              "127.0.0.1",
		Port:              5989,
		Timeout:           5 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Second,
	}.MarshalYAML()
	require.NoError(t, err)

	rendered, ok := out.(struct {
		Host              string `yaml:"host"`
		Port              int    `yaml:"port"`
		Timeout           string `yaml:"timeout"`
		ReadHeaderTimeout string `yaml:"read_header_timeout"`
		IdleTimeout       string `yaml:"idle_timeout"`
	})
	require.True(t, ok)
	assert.Equal(t, "5m0s", rendered.Timeout)
	assert.Equal(t, "10s", rendered.ReadHeaderTimeout)
	assert.Equal(t, "2s", rendered.IdleTimeout)
}

func TestGetVersionInfo(t *testing.T) {
	assert.Equal(t, "flotiq-setup version dev, commit none, built at unknown", GetVersionInfo())
}
