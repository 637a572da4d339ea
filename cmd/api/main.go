package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lenshub/lenshub-backend/api/routes"
	"github.com/lenshub/lenshub-backend/internal/config"
	"github.com/lenshub/lenshub-backend/internal/engine"
	"github.com/lenshub/lenshub-backend/internal/handlers"
	"github.com/lenshub/lenshub-backend/internal/jobs"
	"github.com/lenshub/lenshub-backend/internal/repositories"
	mongorepo "github.com/lenshub/lenshub-backend/internal/repositories/mongodb"
	"github.com/lenshub/lenshub-backend/internal/services"
	"github.com/lenshub/lenshub-backend/pkg/mongodb"
	"golang.org/x/exp/slog"
)

func main() {
	// Local development reads a .env file; production relies on real
	// environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)

	clock := engine.RealClock{}

	// Repositories
	var campaignRepo repositories.CampaignRepository = mongorepo.NewCampaignRepository(db)
	var historyRepo repositories.ImpressionHistoryRepository = mongorepo.NewImpressionHistoryRepository(db)
	var adminRepo repositories.AdminUserRepository = mongorepo.NewAdminUserRepository(db)

	// Services
	campaignService := services.NewCampaignService(campaignRepo, clock)
	selectionService := services.NewSelectionService(campaignRepo, historyRepo,
		time.Duration(cfg.Selection.CacheTTLSeconds)*time.Second)
	analyticsService := services.NewAnalyticsService(campaignRepo, historyRepo, clock)
	authService := services.NewAuthService(adminRepo, cfg)

	// Handlers
	handlerDeps := routes.HandlerDependencies{
		AuthHandler:      handlers.NewAuthHandler(authService),
		CampaignHandler:  handlers.NewCampaignHandler(campaignService, clock),
		SelectionHandler: handlers.NewSelectionHandler(selectionService, clock),
		AnalyticsHandler: handlers.NewAnalyticsHandler(analyticsService),
	}

	router := routes.SetupRouter(cfg, handlerDeps)

	// Background expirer
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	if cfg.Expirer.Enabled {
		expirer := jobs.NewExpirer(campaignRepo, campaignService, clock,
			time.Duration(cfg.Expirer.IntervalSeconds)*time.Second)
		go expirer.Run(jobCtx)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")
	cancelJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Server exiting")
}
