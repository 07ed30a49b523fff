package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/interview-coach/internal/http/handlers"
	httpMW "github.com/yungbote/interview-coach/internal/http/middleware"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	TracingEnabled bool

	AuthHandler      *httpH.AuthHandler
	AuthMiddleware   *httpMW.AuthMiddleware
	InterviewHandler *httpH.InterviewHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "interview-coach"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")

	// Auth (public)
	auth := api.Group("/auth")
	if cfg.AuthHandler != nil {
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
	}

	interview := api.Group("/interview")
	if cfg.InterviewHandler != nil {
		interview.GET("/limits", cfg.InterviewHandler.Limits)
	}

	if cfg.AuthMiddleware == nil {
		return r
	}
	requireAuth := cfg.AuthMiddleware.RequireAuth()

	// Auth (protected)
	if cfg.AuthHandler != nil {
		auth.GET("/me", requireAuth, cfg.AuthHandler.Me)
	}

	// Interview
	if cfg.InterviewHandler != nil {
		protected := interview.Group("", requireAuth)
		protected.POST("/generate-questions", cfg.InterviewHandler.GenerateQuestions)
		protected.POST("/submit-answer", cfg.InterviewHandler.SubmitAnswer)
		protected.GET("/sessions", cfg.InterviewHandler.ListSessions)
		protected.GET("/sessions/:sessionId", cfg.InterviewHandler.GetSession)
		protected.PUT("/complete-session/:sessionId", cfg.InterviewHandler.CompleteSession)
		protected.DELETE("/sessions/:sessionId", cfg.InterviewHandler.DeleteSession)
	}

	return r
}
