package app

import (
	"strings"
	"time"

	"github.com/stoalearn/stoa-backend/internal/platform/envutil"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// AdminEmails get the admin role on registration.
	AdminEmails []string

	// SeedPath is the curriculum yaml applied on startup and by
	// POST /curriculum/seed. Empty disables seeding.
	SeedPath string

	Port        string
	MetricsAddr string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := envutil.Str("JWT_SECRET_KEY", "defaultsecret")
	accessTokenTTLSeconds := envutil.Int("ACCESS_TOKEN_TTL", 3600)
	refreshTokenTTLSeconds := envutil.Int("REFRESH_TOKEN_TTL", 86400)

	if log != nil && jwtSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set, using insecure default")
	}

	var adminEmails []string
	for _, e := range strings.Split(envutil.Str("ADMIN_EMAILS", ""), ",") {
		if e = strings.TrimSpace(e); e != "" {
			adminEmails = append(adminEmails, e)
		}
	}

	return Config{
		JWTSecretKey:    jwtSecretKey,
		AccessTokenTTL:  time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTokenTTLSeconds) * time.Second,
		AdminEmails:     adminEmails,
		SeedPath:        envutil.Str("SEED_PATH", ""),
		Port:            envutil.Str("PORT", "8080"),
		MetricsAddr:     envutil.Str("METRICS_ADDR", ":9090"),
	}
}
