package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/cppla/grievances/config"
	"github.com/cppla/grievances/controllers"
	"github.com/cppla/grievances/middleware"
	"github.com/cppla/grievances/services"
	"github.com/cppla/grievances/utils"
)

// SetupRouter wires routes, middlewares, and controllers. cache may be nil.
func SetupRouter(db *gorm.DB, cfg config.AppConfig, cache *utils.Cache) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file; fall back to the app logger if it cannot be opened
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
			accessLog = gl
		} else {
			utils.Sugar.Warnf("gin access log disabled: %v", err)
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	issuer := utils.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	userService := services.NewUserService(db, cfg.BcryptCost)
	partnerService := services.NewPartnerService(db)
	grievanceService := services.NewGrievanceService(db)

	userController := controllers.NewUserController(userService, partnerService, issuer, cache)
	grievanceController := controllers.NewGrievanceController(grievanceService, cache)
	statsController := controllers.NewStatsController(db, cache)

	auth := middleware.AuthRequired(issuer)
	api := r.Group("/api")

	api.GET("/stats", statsController.GetStats)

	usersGroup := api.Group("/users")
	limited := middleware.RateLimit(cfg.RateLimitPerMinute)
	usersGroup.POST("/register", limited, userController.Register)
	usersGroup.POST("/login", limited, userController.Login)
	usersGroup.GET("/profile", auth, userController.Profile)
	usersGroup.PUT("/profile", auth, userController.UpdateProfile)
	usersGroup.POST("/link-partner", auth, userController.LinkPartner)
	usersGroup.POST("/unlink-partner", auth, userController.UnlinkPartner)
	usersGroup.GET("/partner", auth, userController.Partner)
	usersGroup.GET("/stats", auth, userController.Stats)

	grievancesGroup := api.Group("/grievances")
	grievancesGroup.GET("", middleware.OptionalAuth(issuer), grievanceController.ListGrievances)
	grievancesGroup.GET("/partner", auth, grievanceController.PartnerGrievances)
	grievancesGroup.GET("/:id", grievanceController.GetGrievance)
	grievancesGroup.POST("", auth, grievanceController.CreateGrievance)
	grievancesGroup.PUT("/:id", auth, grievanceController.UpdateGrievance)
	grievancesGroup.DELETE("/:id", auth, grievanceController.DeleteGrievance)
	grievancesGroup.POST("/:id/like", auth, grievanceController.ToggleLike)
	grievancesGroup.POST("/:id/comment", auth, grievanceController.AddComment)
	grievancesGroup.POST("/:id/partner-response", auth, grievanceController.PartnerResponse)
	grievancesGroup.PUT("/:id/mark-read", auth, grievanceController.MarkRead)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "Route not found")
	})

	return r
}
