package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("flotiq-setup version %s, commit %s, built at %s", version, commit, date)
}

const (
	// EnvPrefix is the prefix for environment variable overrides (FLOTIQ_SETUP_SERVER_PORT, ...)
	EnvPrefix = "FLOTIQ_SETUP"

	// DefaultAuthURL is the Flotiq editor login page
	DefaultAuthURL = "https://editor.flotiq.com/login"

	// DefaultPort is the local port the callback listener binds to
	DefaultPort = 5989

	configName = "flotiq-setup"
)

// Flag names shared by the CLI and the viper bindings.
const (
	FlagAuthURL  = "authUrl"
	FlagROKey    = "ro-key"
	FlagRWKey    = "rw-key"
	FlagSilent   = "silent"
	FlagNoStore  = "no-store"
	FlagPort     = "port"
	FlagTimeout  = "timeout"
	FlagEnvFile  = "env-file"
	FlagLogLevel = "log-level"
)

// ErrNoScope is returned when neither key type was requested
var ErrNoScope = errors.New("at least one of --ro-key or --rw-key must be enabled")

var validate = validator.New()

type Config struct {
	Setup   SetupConfig   `mapstructure:"setup" yaml:"setup"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

type SetupConfig struct {
	AuthURL  string   `mapstructure:"auth_url" yaml:"auth_url" validate:"required,url"`
	ROKey    bool     `mapstructure:"ro_key" yaml:"ro_key"`
	RWKey    bool     `mapstructure:"rw_key" yaml:"rw_key"`
	Silent   bool     `mapstructure:"silent" yaml:"silent"`
	NoStore  bool     `mapstructure:"no_store" yaml:"no_store"`
	EnvFiles []string `mapstructure:"env_files" yaml:"env_files" validate:"min=1,dive,required"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host" yaml:"host" validate:"required"`
	Port              int           `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=0"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"min=0"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"min=0"`
}

// MarshalYAML renders durations the way they are written in config files
func (s ServerConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Host              string `yaml:"host"`
		Port              int    `yaml:"port"`
		Timeout           string `yaml:"timeout"`
		ReadHeaderTimeout string `yaml:"read_header_timeout"`
		IdleTimeout       string `yaml:"idle_timeout"`
	}{
		Host:              s.Host,
		Port:              s.Port,
		Timeout:           s.Timeout.String(),
		ReadHeaderTimeout: s.ReadHeaderTimeout.String(),
		IdleTimeout:       s.IdleTimeout.String(),
	}, nil
}

type LoggingConfig struct {
	Level             string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format            string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=console json"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace" yaml:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path" yaml:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file" yaml:"append_to_file"`
}

// flagKeys maps CLI flag names onto configuration keys
var flagKeys = map[string]string{
	FlagAuthURL:  "setup.auth_url",
	FlagROKey:    "setup.ro_key",
	FlagRWKey:    "setup.rw_key",
	FlagSilent:   "setup.silent",
	FlagNoStore:  "setup.no_store",
	FlagEnvFile:  "setup.env_files",
	FlagPort:     "server.port",
	FlagTimeout:  "server.timeout",
	FlagLogLevel: "logging.level",
}

// InitFlags registers the setup flags on fs (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagAuthURL, "a", DefaultAuthURL, "Authentication endpoint")
	fs.BoolP(FlagROKey, "r", true, "Return Read only Flotiq api key as FLOTIQ_API_KEY")
	fs.BoolP(FlagRWKey, "w", false, "Return Read and Write Flotiq api key as FLOTIQ_RW_API_KEY")
	fs.BoolP(FlagSilent, "s", false, "Suppress console output")
	fs.BoolP(FlagNoStore, "n", false, "Disable saving Flotiq api keys into env files")
	fs.Int(FlagPort, DefaultPort, "Local port for the login callback")
	fs.Duration(FlagTimeout, 5*time.Minute, "How long to wait for the browser login (0 waits forever)")
	fs.StringSlice(FlagEnvFile, DefaultEnvFiles(), "Env files the keys are written to")
	fs.String(FlagLogLevel, "error", "Diagnostic log level (debug|info|warn|error)")
}

// DefaultEnvFiles returns the env files written when none are configured
func DefaultEnvFiles() []string {
	return []string{".env", ".env.development"}
}

func setDefaults() {
	viper.SetDefault("setup.auth_url", DefaultAuthURL)
	viper.SetDefault("setup.ro_key", true)
	viper.SetDefault("setup.rw_key", false)
	viper.SetDefault("setup.silent", false)
	viper.SetDefault("setup.no_store", false)
	viper.SetDefault("setup.env_files", DefaultEnvFiles())

	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", DefaultPort)
	viper.SetDefault("server.timeout", 5*time.Minute)
	viper.SetDefault("server.read_header_timeout", 10*time.Second)
	viper.SetDefault("server.idle_timeout", 2*time.Second)

	viper.SetDefault("logging.level", "error")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("logging.disable_stacktrace", true)
	viper.SetDefault("logging.output_path", "")
	viper.SetDefault("logging.append_to_file", true)
}

// Load builds the configuration from defaults, an optional config file,
// FLOTIQ_SETUP_* environment variables and flags, in increasing precedence.
// An empty configFile searches ./flotiq-setup.yaml and
// $HOME/.config/flotiq/flotiq-setup.yaml and tolerates neither existing.
func Load(fs *pflag.FlagSet, configFile string) (*Config, error) {
	viper.Reset() // Ensure clean state

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if fs != nil {
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil {
				continue
			}
			if err := viper.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/flotiq")

		if err := viper.ReadInConfig(); err != nil {
			// It's OK if no config file exists, only error if it's another problem
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration for errors using struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if !c.Setup.ROKey && !c.Setup.RWKey {
		return ErrNoScope
	}
	return nil
}
