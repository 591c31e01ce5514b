package config

import "go.uber.org/fx"

// Module exposes the sections of a supplied *Config to the rest of the graph
var Module = fx.Module("config",
	fx.Provide(
		func(c *Config) *SetupConfig { return &c.Setup },
		func(c *Config) *ServerConfig { return &c.Server },
		func(c *Config) *LoggingConfig { return &c.Logging },
	),
)
