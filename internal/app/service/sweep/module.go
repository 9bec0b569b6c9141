package sweep

import "go.uber.org/fx"

// Module exposes the sweep service and its scheduled runner via Fx.
var Module = fx.Options(
	fx.Provide(
		NewService,
		func(s *Service) Sweeper { return s },
		NewRunner,
	),
	fx.Invoke(registerRunner),
)
