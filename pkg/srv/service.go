package srv

import (
	"context"

	"github.com/sandevgo/engram/pkg/log"
)

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil {
				logger.Fatal().Err(err).Msgf("%T failed to start", service)
			}
		}(service)
	}
}

func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()
	logger := log.FromCtx(ctx)
	for _, service := range services {
		if err := service.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msgf("%T failed to shut down", service)
		}
	}
}
