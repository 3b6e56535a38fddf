// Package openrouter implements the review.Provider backed by the
// OpenRouter aggregator (OpenAI-compatible chat API).
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/statler-mcp/statler/internal/config"
	"github.com/statler-mcp/statler/internal/llm"
	"github.com/statler-mcp/statler/internal/review"
)

// Client owns one reusable HTTP connection to OpenRouter.
type Client struct {
	cfg    *config.Provider
	client *http.Client
	logger *zap.Logger
}

func New(cfg *config.Provider, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *Client) Name() string  { return c.cfg.Name }
func (c *Client) Model() string { return c.cfg.Model }

func (c *Client) chatURL() string { return c.cfg.BaseURL + "/chat/completions" }

// Preflight always passes: OpenRouter manages model availability server
// side and reports a missing model through the request itself.
func (c *Client) Preflight(ctx context.Context) error {
	return nil
}

func (c *Client) Invoke(ctx context.Context, system, user string) ([]byte, error) {
	payload := llm.NewChatRequest(c.cfg.Model, system, user)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.cfg.APIKey)
	headers.Set("HTTP-Referer", "https://github.com/statler-mcp/statler")
	headers.Set("X-Title", "Waldorf MCP Code Review")

	c.logger.Debug("calling openrouter",
		zap.String("url", c.chatURL()),
		zap.String("model", c.cfg.Model),
	)
	return llm.PostJSON(ctx, c.client, c.chatURL(), payload, headers)
}

// ExtractText reads the OpenAI-compatible reply shape, falling back to the
// whole payload when the shape is unexpected.
func (c *Client) ExtractText(raw []byte) string {
	if v := gjson.GetBytes(raw, "choices.0.message.content"); v.Exists() {
		return v.String()
	}
	c.logger.Warn("unexpected openrouter response shape")
	return string(raw)
}

func (c *Client) TranslateError(err error) review.Failure {
	var httpErr *llm.HTTPError

	switch {
	case errors.Is(err, llm.ErrTimeout):
		return review.Failure{
			Diagnostic: fmt.Sprintf("Request timed out after %g seconds", c.cfg.Timeout.Seconds()),
			Recommendations: []string{
				fmt.Sprintf("Increase OPENROUTER_TIMEOUT environment variable (current: %gs)", c.cfg.Timeout.Seconds()),
				"Use a faster model",
				"Check your internet connection",
			},
		}

	case errors.Is(err, llm.ErrUnreachable):
		return review.Failure{
			Diagnostic: fmt.Sprintf("Cannot connect to OpenRouter at %s", c.cfg.BaseURL),
			Recommendations: []string{
				"Check your internet connection",
				fmt.Sprintf("Verify OPENROUTER_BASE_URL is correct (current: %s)", c.cfg.BaseURL),
				"Ensure firewall allows HTTPS connections",
			},
		}

	case errors.As(err, &httpErr):
		return review.Failure{
			Diagnostic:      c.describeHTTPError(httpErr),
			Recommendations: c.recommendations(),
		}

	default:
		return review.GenericFailure(err, c.cfg.Name)
	}
}

func (c *Client) describeHTTPError(httpErr *llm.HTTPError) string {
	switch httpErr.StatusCode {
	case http.StatusUnauthorized:
		return "Authentication failed. Check your OPENROUTER_API_KEY"
	case http.StatusPaymentRequired:
		return "Payment required. Check your OpenRouter account balance"
	case http.StatusNotFound:
		return fmt.Sprintf("Model '%s' not found. Check available models at openrouter.ai/models", c.cfg.Model)
	case http.StatusTooManyRequests:
		return "Rate limit exceeded. Please wait before trying again"
	case http.StatusInternalServerError:
		return "OpenRouter server error. The service may be experiencing issues"
	}

	diag := fmt.Sprintf("OpenRouter returned an error: %d", httpErr.StatusCode)
	// Unrecognized status: surface the nested error payload when present,
	// otherwise the start of the raw body.
	if msg := gjson.GetBytes(httpErr.Body, "error.message"); msg.Exists() {
		return diag + "\n" + msg.String()
	}
	if errObj := gjson.GetBytes(httpErr.Body, "error"); errObj.Exists() {
		return diag + "\n" + errObj.Raw
	}
	return diag + "\n" + llm.TruncateBody(httpErr.Body, 200)
}

func (c *Client) recommendations() []string {
	return []string{
		"Verify OPENROUTER_API_KEY is correct",
		"Check your OpenRouter account status",
		"Try a different model if available",
	}
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
