package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"zettahub/cmd/buildCFG"
	"zettahub/internal/api/api"
	"zettahub/internal/consumerWorker"
	"zettahub/internal/mailer"
	"zettahub/internal/qr"
	"zettahub/internal/rabbit"
	"zettahub/internal/repo"
	"zettahub/internal/service"
	"zettahub/pkg/auth"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build DB config")
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		log.Fatal().Msgf("failed to connect to DB: %v", err)
	}
	if err := db.Master.Ping(); err != nil {
		log.Fatal().Msgf("DB ping failed: %v", err)
	}
	log.Info().Msg("Database connected successfully")

	repository, err := repo.NewRepository(db, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot get working directory")
	}
	migrationPath := filepath.Join(cwd, "migrations/postgres")
	if err := repository.MigrateUp(migrationPath); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("Migrations applied successfully")

	qrCfg := buildCFG.BuildQRConfig(cfg, &log)
	qrDir := qrCfg.Dir
	if !filepath.IsAbs(qrDir) {
		qrDir = filepath.Join(cwd, qrDir)
	}
	if err := os.MkdirAll(qrDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("cannot create qr artifact directory")
	}
	encoder := qr.NewEncoder(qrDir, qrCfg.PublicPrefix)

	authCfg, err := buildCFG.BuildAuthConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load auth config")
	}
	tokens := auth.NewTokenManager(authCfg.JWTSecret, authCfg.TokenTTL)

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
	if err != nil {
		log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rmq.Close()

	mail := mailer.New(buildCFG.BuildMailConfig(cfg, serverCfg.PublicBaseURL), &log)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	mailWorker := consumerWorker.NewReader(rmq, repository, mail)
	mailWorker.Start(workerCtx)

	serviceInstance := service.NewService(repository, &log, rmq, encoder, tokens)
	app := api.NewRouters(&api.Routers{
		Service:        serviceInstance,
		Tokens:         tokens,
		AllowedOrigins: buildCFG.BuildCORSOrigins(cfg),
		QRDir:          qrDir,
		QRPublicPrefix: qrCfg.PublicPrefix,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := app.Run(":" + serverCfg.Port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorkers()
	mailWorker.Stop()

	log.Info().Msg("Shutdown complete")
}
