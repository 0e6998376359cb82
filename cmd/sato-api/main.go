package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YotaroKono/sato-api/internal/config"
	"github.com/YotaroKono/sato-api/internal/database"
	"github.com/YotaroKono/sato-api/internal/handlers"
	"github.com/YotaroKono/sato-api/internal/invite"
	authmw "github.com/YotaroKono/sato-api/internal/middleware"
	"github.com/YotaroKono/sato-api/internal/services"
	"github.com/YotaroKono/sato-api/internal/sse"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	groupService := services.NewGroupService(db)
	pendingService := services.NewPendingInviteService(db)
	linker := invite.NewLinker(cfg.InviteDomain, cfg.AppScheme)
	invitationService := services.NewInvitationService(db, groupService, linker)

	hub := sse.NewHub()
	go hub.Run()

	authHandler := handlers.NewAuthHandler(cfg, userService, tokenService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	groupHandler := handlers.NewGroupHandler(groupService, invitationService, hub)
	inviteHandler := handlers.NewInviteHandler(groupService, invitationService, pendingService, hub)
	sseHandler := handlers.NewSSEHandler(hub, groupService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)

	protected.Post("/groups", groupHandler.Create)
	protected.Get("/groups", groupHandler.List)
	protected.Get("/groups/:id", groupHandler.Get)
	protected.Get("/groups/:id/members", groupHandler.GetMembers)
	protected.Get("/groups/:id/space", groupHandler.GetSpace)
	protected.Get("/groups/:id/invitation", inviteHandler.GetInvitation)
	protected.Get("/groups/:id/events", sseHandler.Connect)

	protected.Post("/invites/join", inviteHandler.Join)
	protected.Post("/invites/pending", inviteHandler.SavePending)
	protected.Get("/invites/pending", inviteHandler.GetPending)
	protected.Delete("/invites/pending", inviteHandler.ClearPending)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			_ = tokenService.CleanupExpired(context.Background())
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
