package auth

import "go.uber.org/fx"

// Module provides the login redirect dependencies
var Module = fx.Module("auth",
	fx.Provide(
		fx.Annotate(
			NewSystemBrowser,
			fx.As(new(Browser)),
		),
		NewInitiator,
	),
)
