package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/electron/internal/target"
)

func main() {
	cfg := config.LoadOrDefault()

	port := flag.String("port", cfg.Target.Port, "Server port")
	host := flag.String("host", cfg.Target.Host, "Listen address")
	windowDelay := flag.Duration("window-delay", cfg.Target.WindowDelay, "Delay before a launched application opens its first window")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode")
	flag.Parse()

	cfg.Target.Port = *port
	cfg.Target.Host = *host
	cfg.Target.WindowDelay = *windowDelay

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	if *dev {
		logCfg = logging.DevelopmentConfig()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	srv := target.NewServer(cfg.Target, logger, *dev)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutting down gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("Server error", zap.Error(err))
	}
}
