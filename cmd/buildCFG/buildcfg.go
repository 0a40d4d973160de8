package buildCFG

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"zettahub/internal/mailer"
)

type ServerConfig struct {
	Port          string
	PublicBaseURL string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type QRConfig struct {
	Dir          string
	PublicPrefix string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{
		Port:          port,
		PublicBaseURL: cfg.GetString("server.public_base_url"),
	}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	var slaveDSNs []string
	if raw := cfg.GetString("database.slave_dsns"); raw != "" {
		slaveDSNs = strings.Split(raw, ",")
	}

	opts := &dbpg.Options{
		MaxOpenConns: cfg.GetInt("database.max_open_conns"),
		MaxIdleConns: cfg.GetInt("database.max_idle_conns"),
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database configuration loaded")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" || rc.Queue == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.exchange and rabbit.queue are required")
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit configuration loaded")
	return rc, nil
}

func BuildAuthConfig(cfg *config.Config, log *zerolog.Logger) (AuthConfig, error) {
	secret := cfg.GetString("auth.jwt_secret")
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("auth.jwt_secret is required")
	}

	ttlMinutes := cfg.GetInt("auth.token_ttl_minutes")
	if ttlMinutes <= 0 {
		ttlMinutes = 60
		log.Warn().Msg("auth.token_ttl_minutes not set, defaulting to 60")
	}

	return AuthConfig{
		JWTSecret: secret,
		TokenTTL:  time.Duration(ttlMinutes) * time.Minute,
	}, nil
}

func BuildQRConfig(cfg *config.Config, log *zerolog.Logger) QRConfig {
	qc := QRConfig{
		Dir:          cfg.GetString("qr.dir"),
		PublicPrefix: cfg.GetString("qr.public_prefix"),
	}
	if qc.Dir == "" {
		qc.Dir = "qr_codes"
	}
	if qc.PublicPrefix == "" {
		qc.PublicPrefix = "/qr_codes"
	}
	log.Info().Str("dir", qc.Dir).Str("prefix", qc.PublicPrefix).Msg("qr configuration loaded")
	return qc
}

func BuildMailConfig(cfg *config.Config, baseURL string) mailer.Config {
	return mailer.Config{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetString("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: cfg.GetString("smtp.password"),
		BaseURL:  baseURL,
	}
}

func BuildCORSOrigins(cfg *config.Config) []string {
	raw := cfg.GetString("cors.allowed_origins")
	if raw == "" {
		return []string{"http://localhost:3000", "http://localhost:3001"}
	}
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}
