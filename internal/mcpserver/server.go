// Package mcpserver exposes an Architect as an MCP stdio tool, plus the
// config/personality resources and the review prompt template.
package mcpserver

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/statler-mcp/statler/internal/config"
)

const version = "1.0.0"

// Reviewer is the single operation the server needs from the architect.
type Reviewer interface {
	Review(ctx context.Context, subject, extra string) string
}

// Persona describes one architect frontend (Statler or Waldorf).
type Persona struct {
	ServerName      string // e.g. "Statler MCP"
	DisplayName     string // e.g. "Statler"
	ToolName        string // e.g. "statler_architect"
	Scheme          string // resource URI scheme, e.g. "statler"
	ToolDescription string
	Personality     string
}

type Server struct {
	mcp      *server.MCPServer
	reviewer Reviewer
	persona  Persona
	cfg      *config.Provider
	logger   *zap.Logger
}

func New(persona Persona, reviewer Reviewer, cfg *config.Provider, logger *zap.Logger) *Server {
	s := &Server{
		mcp: server.NewMCPServer(persona.ServerName, version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithPromptCapabilities(false),
			server.WithRecovery(),
		),
		reviewer: reviewer,
		persona:  persona,
		cfg:      cfg,
		logger:   logger,
	}

	s.registerTool()
	s.registerResources()
	s.registerPrompt()
	return s
}

// Serve runs the stdio protocol loop until the context is cancelled or
// stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio", zap.String("server", s.persona.ServerName))
	return s.ServeOn(ctx, os.Stdin, os.Stdout)
}

// ServeOn is Serve with explicit streams, used by tests.
func (s *Server) ServeOn(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) registerTool() {
	tool := mcp.NewTool(s.persona.ToolName,
		mcp.WithDescription(s.persona.ToolDescription),
		mcp.WithString("code_or_plan",
			mcp.Required(),
			mcp.Description("The code snippet or architectural plan to review"),
		),
		mcp.WithString("context",
			mcp.Description("Additional context about what this code/plan does"),
		),
	)
	s.mcp.AddTool(tool, s.handleReview)
}

func (s *Server) handleReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject, err := request.RequireString("code_or_plan")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	extra := request.GetString("context", "")

	return mcp.NewToolResultText(s.reviewer.Review(ctx, subject, extra)), nil
}

func (s *Server) registerResources() {
	configURI := s.persona.Scheme + "://config"
	configRes := mcp.NewResource(configURI,
		fmt.Sprintf("%s configuration", s.persona.DisplayName),
		mcp.WithResourceDescription(fmt.Sprintf("Current %s backend configuration", s.persona.DisplayName)),
		mcp.WithMIMEType("text/plain"),
	)
	s.mcp.AddResource(configRes, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      configURI,
			MIMEType: "text/plain",
			Text:     s.configText(),
		}}, nil
	})

	personalityURI := s.persona.Scheme + "://personality"
	personalityRes := mcp.NewResource(personalityURI,
		fmt.Sprintf("%s personality", s.persona.DisplayName),
		mcp.WithResourceDescription(fmt.Sprintf("Who %s is and how he reviews", s.persona.DisplayName)),
		mcp.WithMIMEType("text/plain"),
	)
	s.mcp.AddResource(personalityRes, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      personalityURI,
			MIMEType: "text/plain",
			Text:     s.persona.Personality,
		}}, nil
	})
}

func (s *Server) configText() string {
	return fmt.Sprintf(`Current %s Configuration:

%s API Base: %s
%s Model: %s
Timeout: %gs

To change these, set environment variables:
- %s_API_BASE
- %s_MCP_MODEL
- %s_TIMEOUT (seconds)`,
		s.persona.DisplayName,
		s.cfg.Name, s.cfg.BaseURL,
		s.cfg.Name, s.cfg.Model,
		s.cfg.Timeout.Seconds(),
		s.cfg.EnvPrefix, s.cfg.EnvPrefix, s.cfg.EnvPrefix,
	)
}

func (s *Server) registerPrompt() {
	prompt := mcp.NewPrompt("review_prompt",
		mcp.WithPromptDescription("Prompt template for a comprehensive code review"),
	)
	s.mcp.AddPrompt(prompt, func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		text := fmt.Sprintf(`Please provide the code or architectural plan you'd like %s to review.

Use the %s tool with:
- code_or_plan: your code or plan
- context: what this code does or what the plan is for

%s will review it for security vulnerabilities, performance issues,
design pattern violations, error handling gaps, edge cases, code quality
issues and architectural concerns. He's nitpicky but constructive!`,
			s.persona.DisplayName, s.persona.ToolName, s.persona.DisplayName)

		return mcp.NewGetPromptResult(
			"Comprehensive code review",
			[]mcp.PromptMessage{mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text))},
		), nil
	})
}
