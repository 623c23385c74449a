package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/high-horse/fingerprint-server/config"
	"github.com/high-horse/fingerprint-server/internal/log"
	"github.com/high-horse/fingerprint-server/matching"
	"github.com/high-horse/fingerprint-server/registry"
	"github.com/high-horse/fingerprint-server/server"
	"github.com/high-horse/fingerprint-server/storage"
)

type options struct {
	ConfigFile string `long:"config-file" description:"Configuration file path (TOML)"`
	Listen     string `long:"listen" description:"Listen address, overrides server.listen"`
	Debug      bool   `short:"d" long:"debug" description:"Debug mode"`
}

var logger = log.New("main")

func main() {
	opts := parseCLI()
	applyFromEnv(&opts)

	if err := loadConfig(opts); err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg := config.Config
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	level := cfg.Log.Level
	if opts.Debug {
		level = "debug"
	}
	if err := log.SetLevel(level); err != nil {
		logger.Fatal().Err(err).Msg("failed to set log level")
	}
	logFile, err := log.SetFile(cfg.Log.File, cfg.Log.MaxAge, cfg.Log.RotationTime)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open log file")
	}
	defer logFile.Close()
	logger = log.New("main")

	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	reg := registry.New(
		store,
		matching.NewMatcher(cfg.MatchingOptions()),
		registry.Options{Skeleton: cfg.SkeletonOptions(), Workers: cfg.NumWorkers()},
		log.New("registry"),
	)
	srv := server.New(reg, cfg.Server, log.New("server"))

	run(srv, cfg.Server.Listen)
}

func run(srv *server.Server, addr string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(addr) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		logger.Info().Msg("received termination signal, shutting down")
		if err := srv.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}
}

func parseCLI() options {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "fingerprintd"
	parser.Usage = "[OPTION]..."

	if _, err := parser.ParseArgs(os.Args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	return opts
}

func applyFromEnv(opts *options) {
	if v, ok := os.LookupEnv("FINGERPRINT_CONFIG_FILE"); ok && opts.ConfigFile == "" {
		opts.ConfigFile = v
	}
}

func loadConfig(opts options) error {
	if opts.ConfigFile == "" {
		config.LoadDefaultConfig()
		return nil
	}
	return config.LoadConfig(opts.ConfigFile)
}
