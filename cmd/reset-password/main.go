package main

import (
	"flag"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/pkg/config"
	"go-armory-ledger/pkg/database"
	applogger "go-armory-ledger/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	username := flag.String("username", "admin", "user whose password is reset")
	password := flag.String("password", "", "new password (required)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}
	log, err := applogger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync()

	if *password == "" {
		log.Fatal("-password is required")
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	var user model.User
	if err := db.Where("username = ?", *username).First(&user).Error; err != nil {
		log.Fatal("user not found", zap.String("username", *username), zap.Error(err))
	}

	if err := user.SetPassword(*password); err != nil {
		log.Fatal("failed to hash password", zap.Error(err))
	}
	if err := db.Model(&user).Update("password", user.Password).Error; err != nil {
		log.Fatal("failed to update password", zap.Error(err))
	}

	log.Info("password reset", zap.String("username", *username))
}
