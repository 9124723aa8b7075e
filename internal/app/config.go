package app

import (
	"strings"

	"github.com/shaderlabs/shaderlab-backend/internal/platform/envutil"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

type Config struct {
	ServiceName     string
	Environment     string
	Version         string
	Port            string
	AllowOrigins    []string
	AchievementPath string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName:     envutil.Str("SERVICE_NAME", "shaderlab-backend"),
		Environment:     envutil.Str("ENVIRONMENT", "development"),
		Version:         envutil.Str("SERVICE_VERSION", "dev"),
		Port:            envutil.Str("PORT", "8080"),
		AchievementPath: envutil.Str("ACHIEVEMENTS_CONFIG", "config/achievements.yaml"),
	}
	if origins := envutil.Str("CORS_ALLOW_ORIGINS", ""); origins != "" {
		cfg.AllowOrigins = splitCSV(origins)
	}
	log.Debug("config loaded", "service", cfg.ServiceName, "env", cfg.Environment)
	return cfg
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
