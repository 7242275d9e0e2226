package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dtroode/feedback-server/internal/api/http/handler"
	"github.com/dtroode/feedback-server/internal/api/http/middleware"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/model"
	"github.com/dtroode/feedback-server/internal/service"
)

// Services groups the application services exposed over HTTP.
type Services struct {
	Auth          *service.Auth
	OTP           *service.OTP
	PasswordReset *service.PasswordReset
	Token         *service.TokenService
	Exchange      *service.Exchange
	LinkedIn      *service.LinkedIn
	Feedback      *service.Feedback
}

// Options holds the transport level settings of the router.
type Options struct {
	FrontendURL string
	CORSOrigin  string
}

// Router represents the HTTP router of the feedback API.
// It wires handlers and middleware onto a gin engine.
type Router struct {
	services       Services
	db             handler.Pinger
	otpLimiter     *middleware.RateLimiter
	contextManager model.ContextManager
	opts           Options
	logger         *logger.Logger
}

// New creates a new Router instance. otpLimiter throttles the OTP
// endpoints and may be nil.
func New(
	services Services,
	db handler.Pinger,
	otpLimiter *middleware.RateLimiter,
	contextManager model.ContextManager,
	opts Options,
	logger *logger.Logger,
) *Router {
	return &Router{
		services:       services,
		db:             db,
		otpLimiter:     otpLimiter,
		contextManager: contextManager,
		opts:           opts,
		logger:         logger,
	}
}

// Register builds the engine with every route mounted under /api.
func (r *Router) Register() *gin.Engine {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.services.Auth, r.contextManager, r.logger)

	e := gin.New()
	e.Use(gin.Recovery(), logging.Handle, middleware.CORS(r.opts.CORSOrigin))

	api := e.Group("/api")
	r.registerHealthRoutes(api)
	r.registerUserRoutes(api, authenticate)
	r.registerAuthRoutes(api)
	r.registerLinkedInRoutes(api)
	r.registerOTPRoutes(api)
	r.registerPasswordRoutes(api)
	r.registerFeedbackRoutes(api, authenticate)

	return e
}

func (r *Router) registerHealthRoutes(api *gin.RouterGroup) {
	h := handler.NewHealth(r.db, r.logger)
	api.GET("/health", h.Check)
}

func (r *Router) registerUserRoutes(api *gin.RouterGroup, authenticate *middleware.Authenticate) {
	h := handler.NewAuth(r.services.Auth, r.logger)
	users := api.Group("/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.GET("/me", authenticate.Handle, h.Me)
}

func (r *Router) registerAuthRoutes(api *gin.RouterGroup) {
	auth := handler.NewAuth(r.services.Auth, r.logger)
	session := handler.NewSession(r.services.Token, r.services.Exchange, r.logger)
	g := api.Group("/auth")
	g.POST("/google", auth.Google)
	g.POST("/refresh", session.Refresh)
	g.POST("/logout", session.Logout)
	g.POST("/exchange", session.Exchange)
}

func (r *Router) registerLinkedInRoutes(api *gin.RouterGroup) {
	h := handler.NewLinkedIn(r.services.LinkedIn, r.opts.FrontendURL, r.logger)
	g := api.Group("/linkedin")
	g.GET("/login", h.Login)
	g.GET("/callback", h.Callback)
}

func (r *Router) registerOTPRoutes(api *gin.RouterGroup) {
	h := handler.NewOTP(r.services.OTP, r.logger)
	g := api.Group("/otp")
	if r.otpLimiter != nil {
		g.Use(r.otpLimiter.Handle)
	}
	g.POST("/request-otp", h.Request)
	g.POST("/verify-otp", h.Verify)
	g.POST("/resend-otp", h.Resend)
}

func (r *Router) registerPasswordRoutes(api *gin.RouterGroup) {
	h := handler.NewPassword(r.services.PasswordReset, r.logger)
	api.POST("/forgot-password", h.Forgot)
	api.POST("/resetPassword", h.Reset)
}

func (r *Router) registerFeedbackRoutes(api *gin.RouterGroup, authenticate *middleware.Authenticate) {
	h := handler.NewFeedback(r.services.Feedback, r.contextManager, r.logger)
	g := api.Group("/feedback")
	g.POST("/submit", authenticate.Handle, h.Submit)
	g.GET("/:userId", h.List)
}
