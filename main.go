package main

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/sharedtab/tab-engine/config"
	"github.com/sharedtab/tab-engine/engine"
	"github.com/sharedtab/tab-engine/events"
	"github.com/sharedtab/tab-engine/retry"
	"github.com/sharedtab/tab-engine/router"
	"github.com/sharedtab/tab-engine/services"
	"github.com/sharedtab/tab-engine/utils"
)

func main() {
	utils.InitLogger()

	cfg := config.Load()
	utils.InitJWT(cfg.JWTSecret)

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("failed to connect to database: %v", err)
	}
	if err := config.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("migration failed: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	bus := events.NewBus()

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.IngestMaxRetries
	eng := engine.New(db, bus, engine.Options{
		TaxRate:     cfg.TaxRate,
		RetryConfig: retryCfg,
	})

	feed := services.NewChangeFeed(db, bus)
	feed.Interval = cfg.FeedInterval
	feed.Start()
	defer feed.Stop()

	r := router.SetupRouter(db, eng)

	utils.InfoLogger.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatalf("server stopped: %v", err)
	}
}
