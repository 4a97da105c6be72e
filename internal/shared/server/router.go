package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"analysis-backend/internal/adminauth"
	"analysis-backend/internal/feed"
	"analysis-backend/internal/logs"
	"analysis-backend/internal/processor"
	"analysis-backend/internal/queue"
	"analysis-backend/internal/requests"
	"analysis-backend/internal/settings"
	"analysis-backend/internal/setup"
	"analysis-backend/internal/shared/config"
	"analysis-backend/internal/shared/metrics"
	"analysis-backend/internal/shared/server/middleware"
	"analysis-backend/internal/shared/server/respond"
	"analysis-backend/internal/shared/storage/db"
	localstore "analysis-backend/internal/shared/storage/object/local"
)

// App bundles the router with the long-running pieces main has to drive.
type App struct {
	Engine *gin.Engine
	Hub    *feed.Hub
	Queue  *queue.Memory
	Pool   *processor.Pool
	Logs   *logs.Service
	DB     *sql.DB
}

// NewApp wires repositories, services and routes. With no usable database it
// falls back to in-memory repositories so the dashboard still works locally.
func NewApp(cfg config.Config) *App {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	// Dependencies
	store := localstore.New(cfg.LocalStoreDir)
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else {
			if err := db.RunMigrations(context.Background(), dbConn); err != nil {
				log.Printf("failed to run migrations, falling back to memory: %v", err)
				dbConn = nil
			}
		}
		sqlDB = dbConn
	}

	var requestRepo requests.Repo
	var settingsRepo settings.Repo
	var adminRepo adminauth.Repo
	var logRepo logs.Repo
	if sqlDB != nil {
		requestRepo = &requests.PGRepo{DB: sqlDB}
		settingsRepo = &settings.PGRepo{DB: sqlDB}
		adminRepo = &adminauth.PGRepo{DB: sqlDB}
		logRepo = &logs.PGRepo{DB: sqlDB}
	} else {
		requestRepo = requests.NewMemoryRepo()
		settingsRepo = settings.NewMemoryRepo()
		adminRepo = adminauth.NewMemoryRepo()
		logRepo = logs.NewMemoryRepo()
	}

	hub := feed.NewHub()
	q := queue.NewMemory(cfg.QueueSize)

	settingsSvc := settings.NewService(settingsRepo)
	requestSvc := requests.NewService(requestRepo, store, q, hub)
	authSvc := adminauth.NewService(adminRepo)
	setupSvc := setup.NewService(authSvc, settingsSvc)
	logSvc := logs.NewService(logRepo)
	pool := processor.NewPool(q, requestRepo, store, settingsSvc, hub)

	requestHandler := requests.NewHandler(requestSvc)
	settingsHandler := settings.NewHandler(settingsSvc)
	authHandler := adminauth.NewHandler(authSvc)
	setupHandler := setup.NewHandler(setupSvc)
	logHandler := logs.NewHandler(logSvc)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		GroupFor: rateLimitGroup,
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 5, Burst: 20},
			"POLLING": {Rate: 20, Burst: 60},
		},
	}))
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	setupHandler.RegisterRoutes(api)
	authHandler.RegisterRoutes(api)
	requestHandler.RegisterRoutes(api)

	admin := api.Group("")
	admin.Use(middleware.AdminAuth())
	authHandler.RegisterAdminRoutes(admin)
	requestHandler.RegisterAdminRoutes(admin)
	settingsHandler.RegisterRoutes(admin)
	logHandler.RegisterRoutes(admin)

	r.GET("/ws/status/:client_id", feed.Handler(hub))
	r.GET("/metrics", func(c *gin.Context) {
		metrics.SetFeedClients(hub.ClientCount())
		metrics.SetQueueDepth(q.Depth())
		metrics.Handler()(c)
	})

	return &App{
		Engine: r,
		Hub:    hub,
		Queue:  q,
		Pool:   pool,
		Logs:   logSvc,
		DB:     sqlDB,
	}
}

// rateLimitGroup gives reads a higher allowance than mutations so status
// polling never starves submissions.
func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodGet {
		return "POLLING"
	}
	return "DEFAULT"
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
