package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appAuth "github.com/yigit/certtrack/internal/app/auth"
	appControllers "github.com/yigit/certtrack/internal/app/controllers"
	appMigrations "github.com/yigit/certtrack/internal/app/migrations"
	appRepos "github.com/yigit/certtrack/internal/app/repositories"
	appRoutes "github.com/yigit/certtrack/internal/app/routes"
	appServices "github.com/yigit/certtrack/internal/app/services"
	"github.com/yigit/certtrack/internal/config"
	"github.com/yigit/certtrack/internal/db"
	appMiddleware "github.com/yigit/certtrack/internal/middleware"
	pkgAuth "github.com/yigit/certtrack/internal/pkg/auth"
	"github.com/yigit/certtrack/internal/pkg/email"
	"github.com/yigit/certtrack/internal/pkg/events"
	"github.com/yigit/certtrack/internal/pkg/filestorage"
	"github.com/yigit/certtrack/internal/pkg/logger"
	"github.com/yigit/certtrack/internal/pkg/metrics"
	"github.com/yigit/certtrack/internal/pkg/notifier"
	"github.com/yigit/certtrack/internal/pkg/websocket"
	"github.com/yigit/certtrack/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	FileStorage  *filestorage.LocalStorage
	EmailService *email.EmailServiceImpl
	Metrics      *metrics.Metrics
	Publisher    *events.Publisher
	Hub          *websocket.Hub
	Dispatcher   *notifier.Dispatcher

	AuthService        *appServices.AuthService
	AdminService       *appServices.AdminService
	CertificateService *appServices.CertificateService

	AuthController        *appControllers.AuthController
	AdminController       *appControllers.AdminController
	CertificateController *appControllers.CertificateController
	LiveFeedHandler       *websocket.Handler
	AuthMiddleware        *appMiddleware.AuthMiddleware

	Logger zerolog.Logger

	stopHub context.CancelFunc
}

// LoadConfigAndSetupLogger loads .env and configs/config.yaml, then configures the global logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Err(err).Msg("Failed to load .env file")
	}

	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to PostgreSQL, applies migrations and seeds the default admin.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrations"))
	if dir := cfg.Database.MigrationsPath; dir != "" {
		if _, err := os.Stat(dir); err != nil {
			database.Close()
			return nil, fmt.Errorf("migrations directory not found at %s: %w", dir, err)
		}
		migrator = migrator.WithSource(os.DirFS(dir))
	}
	if err := migrator.Migrate(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	users := appRepos.NewUserRepository(database.Pool)
	admin := seed.AdminAccount{
		Name:     cfg.Seed.AdminName,
		Email:    cfg.Seed.AdminEmail,
		Password: cfg.Seed.AdminPassword,
	}
	if err := seed.EnsureAdmin(ctx, users, admin, cfg.Auth.BcryptCost, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// BuildDependencies wires repositories, infrastructure, services and controllers.
// Background workers (hub, dispatcher) are started here and stopped by Shutdown.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(database.Pool)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, cfg.UploadURLPrefix(), logger.Component("filestorage"))
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository)

	deps.EmailService = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
	}, logger.Component("email"))

	deps.Metrics = metrics.New()

	hubCtx, stopHub := context.WithCancel(context.Background())
	deps.stopHub = stopHub
	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	go deps.Hub.Run(hubCtx)

	sinks := []notifier.Sink{
		notifier.NewEmailSink(deps.EmailService),
		notifier.NewHubSink(deps.Hub),
	}
	if cfg.KafkaEnabled() {
		deps.Publisher, err = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			stopHub()
			return nil, fmt.Errorf("failed to initialize kafka publisher: %w", err)
		}
		sinks = append(sinks, notifier.NewKafkaSink(deps.Publisher))
		lgr.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka status events enabled")
	}

	deps.Dispatcher = notifier.NewDispatcher(notifier.Config{
		QueueSize: cfg.Notification.QueueSize,
		Workers:   cfg.Notification.Workers,
		Timeout:   cfg.NotificationTimeout(),
	}, logger.Component("notifier"), deps.Metrics, sinks...)
	deps.Dispatcher.Start()

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.JWTService,
		deps.EmailService,
		deps.Dispatcher,
		appServices.AuthConfig{
			AllowStaffRegistration: cfg.Auth.AllowStaffRegistration,
			BcryptCost:             cfg.Auth.BcryptCost,
			ResetTokenTTL:          cfg.ResetTokenTTL(),
			FrontendURL:            cfg.Server.FrontendURL,
		},
		logger.Component("auth"),
	)
	deps.AdminService = appServices.NewAdminService(deps.Repos.UserRepository, deps.Repos.CertificateRequestRepository, logger.Component("admin"))
	deps.CertificateService = appServices.NewCertificateService(
		deps.Repos.CertificateRequestRepository,
		deps.AuthzService,
		deps.FileStorage,
		deps.Dispatcher,
		deps.Metrics,
		logger.Component("certificates"),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.AdminController = appControllers.NewAdminController(deps.AdminService, lgr)
	deps.CertificateController = appControllers.NewCertificateController(deps.CertificateService, lgr)
	deps.LiveFeedHandler = websocket.NewHandler(deps.Hub, cfg.Server.AllowedOrigins, logger.Component("websocket"))

	return deps, nil
}

// Shutdown drains the notification queue, then stops the hub and the Kafka writer.
func (d *Dependencies) Shutdown(ctx context.Context) error {
	var errs []error
	if d.Dispatcher != nil {
		if err := d.Dispatcher.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notification dispatcher: %w", err))
		}
	}
	if d.stopHub != nil {
		d.stopHub()
		select {
		case <-d.Hub.Done():
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("websocket hub: %w", ctx.Err()))
		}
	}
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}
	appMiddleware.UseJSONFieldNames()

	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20
	router.Use(
		appMiddleware.RequestLogger(logger.Component("http")),
		gin.Recovery(),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
		deps.Metrics.GinMiddleware(),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, appRoutes.Handlers{
		Auth:         deps.AuthController,
		Admin:        deps.AdminController,
		Certificates: deps.CertificateController,
		LiveFeed:     deps.LiveFeedHandler,
	}, deps.AuthMiddleware)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Certificate Tracking API is running")
	})
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	return router
}
