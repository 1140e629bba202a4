// Package main provides the standalone symptom checker MCP server.
// It requires no database, cache or messaging gateway.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/maditrack-server/internal/config"
	"github.com/maditrack-server/internal/logging"
	"github.com/maditrack-server/internal/mcp"
	"github.com/maditrack-server/internal/service"
	"github.com/maditrack-server/internal/setup"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		runSetup(os.Args[2:])
		return
	}

	cfg := config.LoadLiteConfig()

	// stdout carries the MCP stream, so logs go elsewhere
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogOutput)

	server, err := mcp.NewServer(cfg, service.NewDefaultDiagnosisMatcher(logger), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("MCP server failed")
	}

	logger.Info("MCP symptom checker stopped")
}

func runSetup(args []string) {
	cli, err := setup.NewCLI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cli.Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
