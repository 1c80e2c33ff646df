package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort       string   `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL    string   `env:"DATABASE_URL,required"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Rutas de assets y de salida de certificados.
	StaticRoot     string `env:"STATIC_ROOT" envDefault:"static"`
	MediaRoot      string `env:"MEDIA_ROOT" envDefault:"media"`
	FontFile       string `env:"CERTIFICATE_FONT" envDefault:"fonts/alexandria.ttf"`
	AdultTemplate  string `env:"ADULT_CERTIFICATE_TEMPLATE" envDefault:"images/Frame 2 Gold.png"`
	JuniorTemplate string `env:"JUNIOR_CERTIFICATE_TEMPLATE" envDefault:"images/image.png"`

	SessionSecret     string        `env:"SESSION_TOKEN_SECRET"`
	SessionTTLMinutes int           `env:"SESSION_TOKEN_TTL_MINUTES" envDefault:"1440"`
	TraitCacheTTL     time.Duration `env:"TRAIT_CACHE_TTL" envDefault:"5m"`
	FinalizeLockTTL   time.Duration `env:"FINALIZE_LOCK_TTL" envDefault:"30s"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
