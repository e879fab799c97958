package server

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"uniplay.tv/loyalty/internal/config"
	"uniplay.tv/loyalty/internal/handler"
	"uniplay.tv/loyalty/internal/middleware"
	"uniplay.tv/loyalty/internal/repository"
	"uniplay.tv/loyalty/internal/service"
	"uniplay.tv/loyalty/pkg/storage"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)

	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := service.NewSearchService(meiliClient)

	authSvc := service.NewAuthService(userRepo)
	authHandler := handler.NewAuthHandler(authSvc)

	ledgerSvc := service.NewLedgerService(ledgerRepo)
	pointsHandler := handler.NewPointsHandler(ledgerSvc)

	referralSvc := service.NewReferralService(referralRepo, userRepo, cfg.ReferralRewardPoints)
	referralHandler := handler.NewReferralHandler(referralSvc)

	rewardSvc := service.NewRewardService(rewardRepo, searchSvc, imageStorage)
	rewardHandler := handler.NewRewardHandler(rewardSvc)

	redemptionSvc := service.NewRedemptionService(
		redemptionRepo, rewardRepo, ledgerRepo,
		redisClient, cfg.RedemptionTTL, cfg.RateLimitRedeem,
	)
	redemptionHandler := handler.NewRedemptionHandler(redemptionSvc)

	// Expiry sweep (background)
	go func() {
		ticker := time.NewTicker(cfg.ExpirySweepInterval)
		defer ticker.Stop()

		for range ticker.C {
			expired, err := redemptionSvc.ExpireOverdue(context.Background())
			if err != nil {
				log.Printf("❌ Error expiring overdue redemptions: %v", err)
				continue
			}
			if expired > 0 {
				log.Printf("🧹 Expired %d overdue redemptions", expired)
			}
		}
	}()

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(userRepo)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// Service-to-service hooks (shared secret, not user JWT)
	internalGroup := api.Group("/internal")
	internalGroup.Use(middleware.RequireServiceToken())
	{
		internalGroup.POST("/subscriptions/activated", referralHandler.SubscriptionActivated)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/rewards", rewardHandler.GetAdminCatalog)
			adminGroup.POST("/rewards", rewardHandler.CreateReward)
			adminGroup.PUT("/rewards/:id", rewardHandler.UpdateReward)
			adminGroup.PATCH("/rewards/:id/activate", rewardHandler.ActivateReward)
			adminGroup.PATCH("/rewards/:id/deactivate", rewardHandler.DeactivateReward)
			adminGroup.POST("/rewards/:id/image", rewardHandler.UploadImage)

			adminGroup.GET("/referrals", referralHandler.GetAllReferrals)
			adminGroup.GET("/referrals/stats", referralHandler.GetStats)
			adminGroup.POST("/referrals/:id/attach", referralHandler.AttachRegistration)
			adminGroup.POST("/referrals/:id/complete", referralHandler.CompleteReferral)
			adminGroup.POST("/referrals/:id/cancel", referralHandler.CancelReferral)

			adminGroup.GET("/redemptions", redemptionHandler.GetAllRedemptions)
			adminGroup.POST("/redemptions/:id/approve", redemptionHandler.ApproveRedemption)
			adminGroup.POST("/redemptions/:id/reject", redemptionHandler.RejectRedemption)
			adminGroup.POST("/redemptions/:id/use", redemptionHandler.MarkRedemptionUsed)

			adminGroup.POST("/points/adjust", pointsHandler.AdjustPoints)
		}

		// Points routes
		protected.GET("/points/balance", pointsHandler.GetBalance)
		protected.GET("/points/level", pointsHandler.GetLevel)
		protected.GET("/points/history", pointsHandler.GetHistory)

		// Reward catalog routes
		protected.GET("/rewards", rewardHandler.GetCatalog)
		protected.GET("/rewards/:id", rewardHandler.GetReward)
		protected.POST("/rewards/:id/redeem", redemptionHandler.Redeem)
		protected.GET("/redemptions/me", redemptionHandler.GetMyRedemptions)

		// Referral routes
		protected.POST("/referrals", referralHandler.CreateReferral)
		protected.GET("/referrals/me", referralHandler.GetMyReferrals)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
