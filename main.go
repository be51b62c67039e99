package main

import (
	"github.com/wfunc/roomworld/config"
	"github.com/wfunc/roomworld/logger"
	"github.com/wfunc/roomworld/monitor"
	"github.com/wfunc/roomworld/persistence"
	"github.com/wfunc/roomworld/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database (optional; profiles and records are best-effort)
	var db persistence.Database
	if cfg.Database.Enabled {
		switch cfg.Database.Driver {
		case "postgres":
			db, err = persistence.NewPostgreSQL(
				cfg.Database.Postgres.Host,
				cfg.Database.Postgres.Port,
				cfg.Database.Postgres.User,
				cfg.Database.Postgres.Password,
				cfg.Database.Postgres.DBName,
			)
		default:
			db, err = persistence.NewGormPostgreSQL(
				cfg.Database.Postgres.Host,
				cfg.Database.Postgres.Port,
				cfg.Database.Postgres.User,
				cfg.Database.Postgres.Password,
				cfg.Database.Postgres.DBName,
			)
		}
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		logger.Log.Info("Database connection successful.")
	}

	// Metrics endpoint
	mon := monitor.NewMonitor("roomworld")
	mon.StartServer(cfg.Server.MonitorAddress)

	// Initialize Game Server
	gameServer, err := server.NewGameServer(cfg, db, mon)
	if err != nil {
		logger.Log.Fatalf("Failed to create game server: %v", err)
	}

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
