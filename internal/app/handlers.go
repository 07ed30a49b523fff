package app

import (
	apphttp "github.com/yungbote/interview-coach/internal/http"
	httpH "github.com/yungbote/interview-coach/internal/http/handlers"
	httpMW "github.com/yungbote/interview-coach/internal/http/middleware"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	Interview *httpH.InterviewHandler
}

func wireHandlers(log *logger.Logger, services Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Auth:      httpH.NewAuthHandler(services.Auth),
		Interview: httpH.NewInterviewHandler(services.Interview),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func routerConfig(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) apphttp.RouterConfig {
	return apphttp.RouterConfig{
		Log:              log,
		ServiceName:      cfg.ServiceName,
		CORSOrigins:      cfg.CORSOrigins,
		TracingEnabled:   cfg.Otel.Enabled,
		AuthHandler:      handlers.Auth,
		AuthMiddleware:   middleware.Auth,
		InterviewHandler: handlers.Interview,
		HealthHandler:    handlers.Health,
	}
}
