package configs

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxRetries = 10
	retryDelay = 5 * time.Second
)

// Dialector picks the gorm driver for DB_DRIVER. DB_DSN wins over the
// individual DB_* settings when set.
func Dialector(env ENV) (gorm.Dialector, error) {
	switch env.DBDriver {
	case "mysql", "":
		dsn := env.DBDSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				env.DBUser,
				env.DBPassword,
				env.DBHost,
				defaultString(env.DBPort, "3306"),
				env.DBName,
			)
		}
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := env.DBDSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				env.DBHost,
				env.DBUser,
				env.DBPassword,
				env.DBName,
				defaultString(env.DBPort, "5432"),
			)
		}
		return postgres.Open(dsn), nil
	case "sqlite":
		dsn := env.DBDSN
		if dsn == "" {
			dsn = "file:portal.db?_pragma=foreign_keys(1)"
		}
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", env.DBDriver)
}

func GormConfig(env ENV) *gorm.Config {
	level := logger.Warn
	if !env.IsProduction() && env.LogLevel == "debug" {
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}
}

func OpenConnection(env ENV) (*gorm.DB, error) {
	dialector, err := Dialector(env)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		log.Info().Str("driver", env.DBDriver).Msgf("connecting to database (attempt %d/%d)", i+1, maxRetries)
		db, err := gorm.Open(dialector, GormConfig(env))
		if err == nil {
			sqlDB, pingErr := db.DB()
			if pingErr == nil {
				pingErr = sqlDB.Ping()
				if pingErr == nil {
					log.Info().Msg("database connection established")
					return db, nil
				}
			}
			lastErr = pingErr
			log.Warn().Err(pingErr).Msgf("failed to ping database, retrying in %v", retryDelay)
		} else {
			lastErr = err
			log.Warn().Err(err).Msgf("failed to open database, retrying in %v", retryDelay)
		}

		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("connect to database after %d retries: %w", maxRetries, lastErr)
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
