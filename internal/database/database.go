package database

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/5inee/predict-battle/internal/config"
	"github.com/5inee/predict-battle/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	// TranslateError lets callers match unique violations via
	// gorm.ErrDuplicatedKey instead of driver-specific codes.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	slog.Info("database connected", "host", cfg.DBHost, "name", cfg.DBName)
	return db
}

func AutoMigrate(db *gorm.DB) {
	// Earlier deployments indexed predictions under a (game_id, user_id)
	// pair; drop the stale index so AutoMigrate can build the current one.
	db.Exec("DROP INDEX IF EXISTS idx_predictions_game_user")
	db.Exec("DROP INDEX IF EXISTS idx_prediction_game")

	err := db.AutoMigrate(
		&models.User{},
		&models.Guest{},
		&models.Session{},
		&models.Participant{},
		&models.Prediction{},
	)
	if err != nil {
		slog.Error("failed to auto-migrate", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrated")
}
