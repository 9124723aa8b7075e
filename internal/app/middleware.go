package app

import (
	"github.com/shaderlabs/shaderlab-backend/internal/middleware"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("wiring middleware")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, services.Auth),
	}
}
