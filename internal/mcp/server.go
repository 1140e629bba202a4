// Package mcp exposes the symptom checker to AI agents as Model Context
// Protocol tools over stdio. It needs no database or messaging gateway.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/config"
	"github.com/maditrack-server/internal/service"
)

// Server is the symptom checker MCP server
type Server struct {
	config    *config.LiteConfig
	mcpServer *mcp.Server
	matcher   *service.DiagnosisMatcher
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance with its tools registered
func NewServer(cfg *config.LiteConfig, matcher *service.DiagnosisMatcher, logger *logrus.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultLiteConfig()
	}
	if matcher == nil {
		return nil, fmt.Errorf("diagnosis matcher is required")
	}

	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	server := &Server{
		config:    cfg,
		mcpServer: mcp.NewServer(serverInfo, nil),
		matcher:   matcher,
		logger:    logger,
	}

	server.registerTools()
	return server, nil
}

// registerTools registers the symptom checker tools with the MCP SDK
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_symptoms",
		Description: "List the symptoms the checker understands, with the IDs to pass to check_symptoms.",
	}, s.handleListSymptoms)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "check_symptoms",
		Description: "Score the known conditions against a set of symptom IDs. Returns matching conditions ordered by match percentage. Not a medical diagnosis.",
	}, s.handleCheckSymptoms)

	s.logger.WithField("tool_count", 2).Info("Registered MCP tools")
}

// Start serves MCP over stdio until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"name":    s.config.ServerName,
		"version": s.config.ServerVersion,
	}).Info("Starting MCP symptom checker")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
