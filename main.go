package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/santosrp/clanhub/server/api/rest"
	"github.com/santosrp/clanhub/server/api/sse"
	"github.com/santosrp/clanhub/server/audit"
	"github.com/santosrp/clanhub/server/cache"
	"github.com/santosrp/clanhub/server/config"
	dbadapter "github.com/santosrp/clanhub/server/db"
	"github.com/santosrp/clanhub/server/membership"
	mw "github.com/santosrp/clanhub/server/middleware"
	"github.com/santosrp/clanhub/server/model"
	"github.com/santosrp/clanhub/server/ranking"
	"github.com/santosrp/clanhub/server/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if the bootstrap admin cannot log in.
	if cfg.Admin.PasswordHash == "" {
		logger.Warn("admin.password_hash is not set; admin login is disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	if cfg.Server.SeedClans {
		if err := seedClans(db, logger); err != nil {
			logger.Warn("clan seeding failed", zap.Error(err))
		}
	}

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Services ----
	membershipSvc := membership.NewService(db, logger)
	rankingSvc := ranking.NewService(db)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	if cfg.Audit.RetentionDays > 0 {
		retention := time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour
		sched.AddTicker("audit_retention", 24*time.Hour, func() {
			if err := auditSvc.Purge(retention); err != nil {
				logger.Warn("audit purge failed", zap.Error(err))
			}
		})
	}
	sched.AddTicker("stats_report", time.Hour, func() {
		stats, err := rankingSvc.CommunityStats()
		if err != nil {
			logger.Warn("stats tick failed", zap.Error(err))
			return
		}
		logger.Info("community stats",
			zap.Int64("totalUsers", stats.TotalUsers),
			zap.Int64("totalClans", stats.TotalClans),
			zap.Int64("activeUsers", stats.ActiveUsers),
			zap.Int64("pendingRequests", stats.PendingRequests))
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	sseH := sse.NewHandler(pubsub, c, cfg.Security, logger)
	authH := apirest.NewAuthHandler(db, c, cfg.Security, cfg.Admin)
	clanH := apirest.NewClanHandler(db, membershipSvc, auditSvc)
	requestH := apirest.NewJoinRequestHandler(db, membershipSvc, auditSvc)
	announceH := apirest.NewAnnouncementHandler(db, sseH, logger)
	rankH := apirest.NewRankingHandler(rankingSvc)
	adminH := apirest.NewAdminHandler(db, membershipSvc, auditSvc)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/discord", authH.DiscordLogin)
		authG.POST("/admin/login", authH.AdminLogin)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)

		api.GET("/me", mw.OptionalAuth(cfg.Security, c), authH.Me)
		api.POST("/register", requestH.Register)

		api.GET("/clans", clanH.List)
		api.GET("/clans/:id", clanH.Detail)
		api.POST("/clans", mw.Auth(cfg.Security, c), clanH.Create)

		requestsG := api.Group("/join-requests")
		requestsG.Use(mw.Auth(cfg.Security, c))
		requestsG.GET("", requestH.List)
		requestsG.POST("/:id/approve", requestH.Approve)
		requestsG.POST("/:id/reject", requestH.Reject)

		announceG := api.Group("/announcements")
		announceG.Use(mw.Auth(cfg.Security, c))
		announceG.GET("", announceH.List)
		announceG.POST("", announceH.Create)

		api.GET("/ranking", rankH.Rankings)
		api.GET("/stats", rankH.Stats)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPWhitelist), mw.Auth(cfg.Security, c))
		adminG.GET("/users", adminH.ListUsers)
		adminG.POST("/users/:id/role", adminH.ChangeRole)
		adminG.DELETE("/clans/:id", clanH.Delete)
	}

	// ---- SSE ----
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// seedClans inserts a few starter clans on first run so the community has
// something to join before any admin logs in.
func seedClans(db *gorm.DB, logger *zap.Logger) error {
	var count int64
	if err := db.Model(&model.Clan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	seeds := []model.Clan{
		{Name: "Crimson Vanguard", Description: "Frontline roleplay and weekly raid nights."},
		{Name: "Silver Circle", Description: "Story-driven sessions, new members welcome."},
		{Name: "Night Owls", Description: "Late-night casual crew."},
	}
	if err := db.Create(&seeds).Error; err != nil {
		return err
	}
	logger.Info("seeded starter clans", zap.Int("count", len(seeds)))
	return nil
}
