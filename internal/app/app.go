package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "fyzioakademie/docs"
	"fyzioakademie/internal/config"
	"fyzioakademie/internal/database"
	"fyzioakademie/internal/handlers"
	"fyzioakademie/internal/logger"
	"fyzioakademie/internal/middleware"
	"fyzioakademie/internal/pdf"
	"fyzioakademie/internal/repositories"
	"fyzioakademie/internal/routes"
	"fyzioakademie/internal/services"
	"fyzioakademie/internal/utils"
)

const shutdownTimeout = 30 * time.Second

type Options struct {
	ConfigPath  string
	MigrateOnly bool
}

func Run(opts Options) error {
	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// === DB ===
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("[db] close failed", zap.Error(err))
		}
	}()
	if err := database.Migrate(db, log); err != nil {
		return err
	}
	if opts.MigrateOnly {
		log.Info("[db] migrations applied, exiting")
		return nil
	}

	router, cleanup, err := buildRouter(cfg, db, log)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(srv, log)
}

func buildRouter(cfg *config.Config, db *sql.DB, log *zap.Logger) (*gin.Engine, func(), error) {
	// === Repos ===
	courseRepo := repositories.NewCourseRepository(db)
	purchaseRepo := repositories.NewPurchaseRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	subRepo := repositories.NewSubscriptionRepository(db)
	promoRepo := repositories.NewPromoCodeRepository(db)
	pendingRepo := repositories.NewPendingRegistrationRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	blogRepo := repositories.NewBlogRepository(db)
	teamRepo := repositories.NewTeamMemberRepository(db)

	// === Integrations ===
	supabase := utils.NewSupabaseClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.ServiceRoleKey)
	gateway := services.NewStripeGateway(cfg.Stripe.SecretKey, log)
	notifier := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, "", log)
	mailer := services.NewMailer(cfg.Email, log)
	receipts := pdf.NewReceiptGenerator(cfg.PDF.FontPath, cfg.PDF.Seller)

	var verifier middleware.TokenVerifier
	if cfg.Supabase.JWTSecret != "" {
		verifier = middleware.NewJWTVerifier(cfg.Supabase.JWTSecret)
	} else {
		log.Info("[auth] jwt secret not set, verifying tokens via supabase")
		verifier = middleware.NewRemoteVerifier(supabase)
	}

	plans, err := services.ParsePlans(cfg.Plans)
	if err != nil {
		return nil, nil, fmt.Errorf("plans: %w", err)
	}

	// === Services ===
	checkoutService := services.NewCheckoutService(courseRepo, purchaseRepo, gateway, notifier, cfg.SiteURL, cfg.Stripe.Currency, log)
	paymentService := services.NewPaymentService(plans, subRepo, promoRepo, gateway, notifier, cfg.Stripe.Currency, log)
	webhookService := services.NewWebhookService(cfg.Stripe.WebhookSecret, checkoutService, paymentService, log)
	registrationService := services.NewRegistrationService(pendingRepo, supabase, mailer, log)
	resetService := services.NewPasswordResetService(resetRepo, supabase, mailer, log)
	contentService := services.NewContentService(courseRepo, blogRepo, teamRepo)
	dashboardService := services.NewDashboardService(enrollmentRepo, subRepo, purchaseRepo, courseRepo, receipts, log)
	reportService := services.NewReportService(purchaseRepo, subRepo)

	job := services.NewCleanupJob(log, map[string]services.Purger{
		"pending_registrations": registrationService,
		"password_reset_codes":  resetService,
	})
	scheduler, err := job.Start(services.CleanupSchedule)
	if err != nil {
		return nil, nil, fmt.Errorf("cleanup job: %w", err)
	}
	cleanup := func() {
		<-scheduler.Stop().Done()
		if tn, ok := notifier.(*services.TelegramNotifier); ok {
			tn.Close()
		}
	}

	// === Gin ===
	router := gin.New()
	router.Use(logger.GinMiddleware(log))
	router.Use(logger.Recovery(log))
	router.Use(middleware.CORS(cfg.Server.CORSOrigin))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/healthz", healthHandler(db))

	routes.SetupRoutes(router, routes.Handlers{
		Auth:      handlers.NewAuthHandler(registrationService, resetService),
		Checkout:  handlers.NewCheckoutHandler(checkoutService),
		Payments:  handlers.NewPaymentHandler(paymentService),
		Webhooks:  handlers.NewWebhookHandler(webhookService),
		Content:   handlers.NewContentHandler(contentService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		Reports:   handlers.NewReportHandler(reportService),
	}, verifier)

	return router, cleanup, nil
}

func healthHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// serve: ждёт SIGINT/SIGTERM и гасит сервер, давая запросам доработать.
func serve(srv *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("[http] server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("[http] shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("[http] server stopped")
	return nil
}
