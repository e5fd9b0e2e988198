package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/stoalearn/stoa-backend/internal/platform/envutil"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

type pgConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns int
	MaxIdleConns int
}

func pgConfigFromEnv() pgConfig {
	return pgConfig{
		Host:         envutil.Str("POSTGRES_HOST", "localhost"),
		Port:         envutil.Str("POSTGRES_PORT", "5432"),
		User:         envutil.Str("POSTGRES_USER", "postgres"),
		Password:     envutil.Str("POSTGRES_PASSWORD", ""),
		Name:         envutil.Str("POSTGRES_NAME", "stoa"),
		SSLMode:      envutil.Str("POSTGRES_SSLMODE", "disable"),
		MaxOpenConns: envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20),
		MaxIdleConns: envutil.Int("POSTGRES_MAX_IDLE_CONNS", 5),
	}
}

func (c pgConfig) dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(logg *logger.Logger) (*PostgresService, error) {
	cfg := pgConfigFromEnv()

	db, err := gorm.Open(postgres.Open(cfg.dsn()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   slowQueryLog(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// uuid_generate_v4 column defaults need the extension in place before
	// the first insert.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: logg.With("service", "PostgresService")}, nil
}

// slowQueryLog surfaces queries over half a second at Warn and swallows
// gorm's record-not-found noise.
func slowQueryLog() gormLogger.Interface {
	return gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

// Ping verifies connectivity for the health endpoint.
func (s *PostgresService) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
