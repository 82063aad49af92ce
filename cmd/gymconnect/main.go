package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymconnect/internal/config"
	"gymconnect/internal/constants"
	"gymconnect/internal/database"
	"gymconnect/internal/service"
	"gymconnect/internal/tracing"
	"gymconnect/pkg/openai"
	"gymconnect/pkg/whatsapp"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose = flag.Bool("verbose", false, "Enable verbose logging (includes message contents)")
	envFile = flag.String("env", ".env", "Path to environment file")
	version = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("GymConnect %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting GymConnect")

	// Missing .env is fine; variables may come from the environment.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Failed to load %s: %v", *envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - message contents will be logged")
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			if level > logrus.InfoLevel {
				level = logrus.InfoLevel
			}
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	tracingManager := tracing.NewManager(tracing.Config{
		ServiceName:  cfg.Tracing.ServiceName,
		Environment:  cfg.Tracing.Environment,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		Enabled:      cfg.Tracing.Enabled,
		UseStdout:    cfg.Tracing.UseStdout,
	}, logger)

	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	llm := openai.NewClient(openai.ClientConfig{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	})

	sender := whatsapp.NewSender(whatsapp.Config{
		Provider: cfg.WhatsApp.Provider,
		Timeout:  cfg.WhatsApp.Timeout,
		Meta: whatsapp.MetaConfig{
			AccessToken:   cfg.WhatsApp.Meta.AccessToken,
			PhoneNumberID: cfg.WhatsApp.Meta.PhoneNumberID,
		},
		ZAPI: whatsapp.ZAPIConfig{
			InstanceID: cfg.WhatsApp.ZAPI.InstanceID,
			Token:      cfg.WhatsApp.ZAPI.Token,
			BaseURL:    cfg.WhatsApp.ZAPI.BaseURL,
		},
		WATI: whatsapp.WATIConfig{
			APIKey:  cfg.WhatsApp.WATI.APIKey,
			BaseURL: cfg.WhatsApp.WATI.BaseURL,
		},
		Twilio: whatsapp.TwilioConfig{
			AccountSID: cfg.WhatsApp.Twilio.AccountSID,
			AuthToken:  cfg.WhatsApp.Twilio.AuthToken,
			FromNumber: cfg.WhatsApp.Twilio.FromNumber,
		},
	})

	generator := service.NewReplyGenerator(llm, cfg.Business, logger)
	pipeline := service.NewPipeline(db, generator, sender, logger)

	logger.WithFields(logrus.Fields{
		"provider": cfg.WhatsApp.Provider,
		"model":    cfg.OpenAI.Model,
		"async":    cfg.Server.AsyncWebhooks,
	}).Info("Message pipeline initialized")

	server := NewServer(cfg, pipeline, logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}
