package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskdesk/task-system/docs"
	"github.com/taskdesk/task-system/internal/api/handler"
	"github.com/taskdesk/task-system/internal/api/middleware"
	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
	"github.com/taskdesk/task-system/internal/infrastructure/http/handlers"
)

// Dependencies are the services and probes the router exposes.
type Dependencies struct {
	AuthService ports.AuthService
	TaskService ports.TaskService
	NoteService ports.NoteService
	Tokens      middleware.TokenValidator

	CORSAllowedOrigins []string
	Probes             []handlers.Probe

	// Registry overrides the default Prometheus registry for the HTTP
	// metrics middleware and /metrics. Nil uses the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: deps.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "taskdesk",
		Registerer: registerer,
	}))
	e.Use(requestLogger(log))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.AuthService, log)
	userHandler := handler.NewUserHandler()
	taskHandler := handler.NewTaskHandler(deps.TaskService)
	noteHandler := handler.NewNoteHandler(deps.NoteService)
	authMiddleware := middleware.Auth(deps.Tokens)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	apiGroup := e.Group("/api")

	// --- Auth routes ---
	auth := apiGroup.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// --- Role-gated areas ---
	user := apiGroup.Group("/user", authMiddleware)
	user.GET("/profile", userHandler.Profile)
	user.GET("/user-specific-data", userHandler.UserData, middleware.RBAC(domain.RoleUser))

	dashboard := apiGroup.Group("/dashboard", authMiddleware, adminOnly)
	dashboard.GET("/admin-data", userHandler.AdminData)

	// --- Task routes ---
	tasks := apiGroup.Group("/tasks", authMiddleware)
	tasks.GET("/users", taskHandler.ListUsers, adminOnly)
	tasks.GET("/urgency-levels", taskHandler.UrgencyLevels)
	tasks.GET("/my-tasks", taskHandler.MyTasks, middleware.RBAC(domain.RoleUser, domain.RoleAdmin))
	tasks.POST("", taskHandler.Create, adminOnly)
	tasks.GET("", taskHandler.List, adminOnly)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update, adminOnly)
	tasks.DELETE("/:id", taskHandler.Delete, adminOnly)
	tasks.PATCH("/:id/status", taskHandler.UpdateStatus)
	tasks.POST("/:id/comments", taskHandler.AddComment)

	// --- Note routes (owner scoped) ---
	notes := apiGroup.Group("/notes", authMiddleware, middleware.RBAC(domain.RoleUser, domain.RoleAdmin))
	notes.GET("", noteHandler.List)
	notes.POST("", noteHandler.Create)
	notes.GET("/:id", noteHandler.Get)
	notes.PUT("/:id", noteHandler.Update)
	notes.DELETE("/:id", noteHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Probes...)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				event = log.Error()
			case v.Status >= http.StatusBadRequest:
				event = log.Warn()
			}
			if v.Error != nil {
				event = event.Str("error", v.Error.Error())
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
