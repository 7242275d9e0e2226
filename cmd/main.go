package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	httpctx "github.com/dtroode/feedback-server/internal/api/http/context"
	"github.com/dtroode/feedback-server/internal/api/http/middleware"
	"github.com/dtroode/feedback-server/internal/api/http/router"
	"github.com/dtroode/feedback-server/internal/config"
	"github.com/dtroode/feedback-server/internal/logger"
	"github.com/dtroode/feedback-server/internal/mail"
	"github.com/dtroode/feedback-server/internal/model"
	"github.com/dtroode/feedback-server/internal/provider/google"
	"github.com/dtroode/feedback-server/internal/provider/linkedin"
	"github.com/dtroode/feedback-server/internal/repository/memory"
	"github.com/dtroode/feedback-server/internal/repository/postgres"
	"github.com/dtroode/feedback-server/internal/repository/redis"
	"github.com/dtroode/feedback-server/internal/server"
	"github.com/dtroode/feedback-server/internal/service"
	storage "github.com/dtroode/feedback-server/internal/storage/minio"
	"github.com/dtroode/feedback-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	feedbackRepo := postgres.NewFeedbackRepository(db)

	tokenManager, err := token.NewJWT(token.Options{
		KeyID:        cfg.JWT.KeyID,
		Secret:       cfg.JWT.Secret,
		PreviousKeys: cfg.JWT.PreviousKeys,
		AccessTTL:    cfg.JWT.AccessTTL,
		RefreshTTL:   cfg.JWT.RefreshTTL,
	})
	if err != nil {
		logger.Fatal("failed to initialize token manager", "error", err)
	}

	challenges, codes, closeStores := newExpiringStores(ctx, cfg.Redis, logger)
	defer closeStores()

	archive := newArchive(ctx, cfg.Storage, logger)

	mailer := mail.NewMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	linkedInClient := linkedin.NewClient(linkedin.Options{
		ClientID:     cfg.LinkedIn.ClientID,
		ClientSecret: cfg.LinkedIn.ClientSecret,
		RedirectURL:  cfg.LinkedIn.RedirectURI,
		Timeout:      cfg.Provider.Timeout,
	})

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo, tokenManager.RefreshTTL(), logger)
	identityService := service.NewIdentity(userRepo, logger)
	authService := service.NewAuth(userRepo, identityService, tokenService, hasher, google.NewDecoder(cfg.Google.ClientID), logger)
	exchangeService := service.NewExchange(codes, authService, logger)
	services := router.Services{
		Auth:          authService,
		OTP:           service.NewOTP(challenges, userRepo, tokenService, hasher, mailer, cfg.OTP.ExposeCode, logger),
		PasswordReset: service.NewPasswordReset(userRepo, tokenService, hasher, mailer, cfg.FrontendURL, cfg.Reset.ConcealUnknownEmail, logger),
		Token:         tokenService,
		Exchange:      exchangeService,
		LinkedIn:      service.NewLinkedIn(linkedInClient, identityService, exchangeService, logger),
		Feedback:      service.NewFeedback(feedbackRepo, userRepo, archive, logger),
	}

	otpLimiter := middleware.NewRateLimiter(cfg.OTP.RateLimit, cfg.OTP.RateWindow, logger)

	janitor := service.NewJanitor(challenges, codes, tokenService, cfg.Janitor, logger)
	janitor.AddSweeper("otp rate limiter", otpLimiter)

	r := router.New(services, db, otpLimiter, httpctx.NewManager(), router.Options{
		FrontendURL: cfg.FrontendURL,
		CORSOrigin:  cfg.HTTP.CORSOrigin,
	}, logger)
	httpServer := server.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	var wg sync.WaitGroup
	wg.Add(2)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(httpServer)
	go func() {
		defer wg.Done()
		janitor.Run(ctx)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

// newExpiringStores returns the OTP and exchange code stores, backed by
// Redis when enabled and by process memory otherwise.
func newExpiringStores(ctx context.Context, cfg config.Redis, logger *logger.Logger) (model.ChallengeStore, model.ExchangeStore, func()) {
	if !cfg.Enabled {
		logger.Info("using in-memory stores for otp challenges and exchange codes")
		return memory.NewStore[model.Challenge](), memory.NewStore[model.ExchangeGrant](), func() {}
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", "error", err, "addr", cfg.Addr)
	}
	logger.Info("using redis stores for otp challenges and exchange codes", "addr", cfg.Addr)

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
	return redis.NewStore[model.Challenge](client, redis.ChallengePrefix, redis.DefaultGrace),
		redis.NewStore[model.ExchangeGrant](client, redis.ExchangePrefix, redis.DefaultGrace),
		closeFn
}

// newArchive returns the feedback archive, or nil when object storage is
// disabled.
func newArchive(ctx context.Context, cfg config.Storage, logger *logger.Logger) model.Storage {
	if !cfg.Enabled {
		return nil
	}

	client, err := storage.NewClient(ctx, storage.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}
	return client
}
