package main

import (
	"context"
	"errors"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/config"
	"github.com/tmasplus/fleet-admin/internal/db"
	"github.com/tmasplus/fleet-admin/internal/handlers"
	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/middleware"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/realtime"
	"github.com/tmasplus/fleet-admin/internal/service"
	"github.com/tmasplus/fleet-admin/internal/storage"
	storepg "github.com/tmasplus/fleet-admin/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("fleet-admin")

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Error("database connection failed", logger.Error(err))
		panic(err)
	}

	if err := gdb.AutoMigrate(
		&models.AuthAccount{},
		&models.User{},
		&models.Car{},
		&models.ReferralCode{},
		&models.Referral{},
		&models.Booking{},
		&models.Tracking{},
		&models.WalletHistory{},
		&models.Notification{},
	); err != nil {
		log.Error("migration failed", logger.Error(err))
		panic(err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			// Notifications degrade to single-instance delivery.
			log.Warning("redis unreachable, realtime bridge runs local-only", logger.Error(err))
			rdb = nil
		}
	}

	hub := realtime.NewHub(log)
	go hub.Run()
	bridge := realtime.NewBridge(hub, rdb, log)
	go bridge.Run(context.Background())

	files := storage.NewLocalStore(cfg.UploadDir, cfg.AppBaseURL, cfg.MaxUploadBytes, log)
	repos := storepg.NewStorage(gdb, log)

	buckets := service.Buckets{
		DriverDocuments:  cfg.DriverDocumentsBucket,
		VehicleDocuments: cfg.VehicleDocumentsBucket,
	}

	userSvc := service.NewUserService(repos.User(), repos.Wallet(), log)
	carSvc := service.NewCarService(repos.Car(), log)
	referralSvc := service.NewReferralService(repos.Referral(), log)
	authSvc := service.NewAuthService(repos.Auth(), log)
	driverSvc := service.NewDriverService(userSvc, carSvc, referralSvc, authSvc, files, buckets, log)
	notificationSvc := service.NewNotificationService(repos.Notification(), bridge, log)

	app := fiber.New(fiber.Config{
		AppName: "fleet-admin " + cfg.AppVersion,
		// Errors escaping a handler or middleware still answer in the
		// standard envelope with the right status.
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var ae *apperr.Error
			if errors.As(err, &ae) {
				return c.Status(apperr.Status(ae)).JSON(fiber.Map{
					"success": false,
					"message": ae.Message,
					"kind":    ae.Kind,
				})
			}
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{
					"success": false,
					"message": fe.Message,
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "An unexpected error occurred. Please try again.",
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))
	app.Use(middleware.Metrics())

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Static("/uploads", cfg.UploadDir)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": cfg.AppVersion})
	})

	authH := &handlers.AuthHandler{
		Auth:      authSvc,
		Users:     userSvc,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	driverH := &handlers.DriverHandler{Drivers: driverSvc, Users: userSvc}
	userH := &handlers.UserHandler{Users: userSvc, Wallet: repos.Wallet()}
	carH := &handlers.CarHandler{Cars: carSvc, Files: files, Buckets: buckets}
	referralH := &handlers.ReferralHandler{Referrals: referralSvc}
	notificationH := &handlers.NotificationHandler{
		Notifications:     notificationSvc,
		Hub:               hub,
		PollingIntervalMS: cfg.PollingIntervalMS,
	}

	api := app.Group("/api")

	// public
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Post("/drivers/register", driverH.Register)
	api.Get("/referrals/validate", referralH.Validate)

	// Single always-applied guard for everything behind the login.
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
		middleware.RequireRoles("admin"),
	)

	protected.Get("/auth/me", authH.Me)

	// drivers
	protected.Get("/drivers", driverH.List)
	protected.Get("/drivers/stats", driverH.Stats)
	protected.Get("/drivers/cities", driverH.Cities)
	protected.Post("/drivers/identity", driverH.RegisterIdentity)
	protected.Get("/drivers/:id", driverH.Profile)
	protected.Post("/drivers/:id/documents", driverH.RegisterDocuments)
	protected.Post("/drivers/:id/vehicle", driverH.RegisterVehicle)
	protected.Post("/drivers/:id/company", driverH.AttachCompany)
	protected.Patch("/drivers/:id/approve", driverH.Approve)
	protected.Patch("/drivers/:id/reject", driverH.Reject)
	protected.Patch("/drivers/:id/block", driverH.Block)
	protected.Patch("/drivers/:id/unblock", driverH.Unblock)
	protected.Patch("/drivers/:id/active-status", driverH.SetActiveStatus)

	// users
	protected.Post("/users", userH.Create)
	protected.Get("/users/:id", userH.Get)
	protected.Patch("/users/:id", userH.Update)
	protected.Delete("/users/:id", userH.Delete)
	protected.Post("/users/:id/wallet", userH.AdjustWallet)
	protected.Get("/users/:id/wallet/history", userH.WalletHistory)

	// cars
	protected.Get("/cars", carH.List)
	protected.Get("/cars/stats", carH.Stats)
	protected.Get("/cars/expiring-documents", carH.ExpiringDocuments)
	protected.Post("/cars", carH.Create)
	protected.Get("/cars/:id", carH.Get)
	protected.Patch("/cars/:id", carH.Update)
	protected.Delete("/cars/:id", carH.Delete)
	protected.Patch("/cars/:id/active", carH.ToggleActive)
	protected.Patch("/cars/:id/driver", carH.AssignDriver)
	protected.Post("/cars/:id/documents", carH.UploadDocument)

	// referrals
	protected.Post("/referrals", referralH.Create)
	protected.Get("/drivers/:id/referral-code", referralH.CodeForDriver)
	protected.Post("/drivers/:id/referral-code", referralH.CreateCodeForDriver)
	protected.Get("/drivers/:id/referrals", referralH.ListForDriver)
	protected.Get("/drivers/:id/referrals/stats", referralH.StatsForDriver)
	protected.Patch("/referrals/:id/status", referralH.UpdateStatus)
	protected.Post("/referrals/:id/claim", referralH.ClaimReward)

	// notifications
	protected.Post("/notifications", notificationH.Create)
	protected.Get("/users/:id/notifications", notificationH.ListForUser)
	protected.Get("/users/:id/notifications/unread", notificationH.UnreadCount)
	protected.Patch("/users/:id/notifications/read-all", notificationH.MarkAllRead)
	protected.Patch("/notifications/:id/read", notificationH.MarkRead)

	// websocket stream, same cookie auth as the rest
	app.Use("/ws", handlers.UpgradeRequired)
	app.Get("/ws/notifications",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
		notificationH.Stream(),
	)

	log.Info("listening", logger.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Error("server stopped", logger.Error(err))
		panic(err)
	}
}
