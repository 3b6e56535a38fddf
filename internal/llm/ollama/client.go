// Package ollama implements the review.Provider backed by a local Ollama
// server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/statler-mcp/statler/internal/config"
	"github.com/statler-mcp/statler/internal/llm"
	"github.com/statler-mcp/statler/internal/review"
)

const preflightTimeout = 10 * time.Second

// ModelUnavailableError means the configured model is not present on the
// server, or the model list could not be fetched at all.
type ModelUnavailableError struct {
	Model string
	cause error
}

func (e *ModelUnavailableError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("model %q unavailable: %v", e.Model, e.cause)
	}
	return fmt.Sprintf("model %q not found on server", e.Model)
}

func (e *ModelUnavailableError) Unwrap() error { return e.cause }

// Client owns one reusable HTTP connection to the Ollama server.
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

func (c *Client) chatURL() string { return c.cfg.BaseURL + "/api/chat" }
func (c *Client) tagsURL() string { return c.cfg.BaseURL + "/api/tags" }

// Preflight confirms the configured model exists on the server's model
// list, accepting versioned names ("llama3.2:latest" matches "llama3.2").
func (c *Client) Preflight(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()

	body, err := llm.GetJSON(ctx, c.client, c.tagsURL())
	if err != nil {
		c.logger.Error("model availability check failed", zap.Error(err))
		return &ModelUnavailableError{Model: c.cfg.Model, cause: err}
	}

	var available []string
	for _, name := range gjson.GetBytes(body, "models.#.name").Array() {
		available = append(available, name.String())
		if name.String() == c.cfg.Model || strings.HasPrefix(name.String(), c.cfg.Model+":") {
			return nil
		}
	}

	c.logger.Warn("configured model not found on server",
		zap.String("model", c.cfg.Model),
		zap.Strings("available", available),
	)
	return &ModelUnavailableError{Model: c.cfg.Model}
}

func (c *Client) Invoke(ctx context.Context, system, user string) ([]byte, error) {
	payload := llm.NewChatRequest(c.cfg.Model, system, user)
	c.logger.Debug("calling ollama",
		zap.String("url", c.chatURL()),
		zap.String("model", c.cfg.Model),
	)
	return llm.PostJSON(ctx, c.client, c.chatURL(), payload, nil)
}

// ExtractText handles the chat reply shape plus the older variants:
// message.content, then response, then content, else the whole payload.
func (c *Client) ExtractText(raw []byte) string {
	if msg := gjson.GetBytes(raw, "message"); msg.IsObject() {
		return msg.Get("content").String()
	}
	if v := gjson.GetBytes(raw, "response"); v.Exists() {
		return v.String()
	}
	if v := gjson.GetBytes(raw, "content"); v.Exists() {
		return v.String()
	}
	c.logger.Warn("unexpected ollama response shape")
	return string(raw)
}

func (c *Client) TranslateError(err error) review.Failure {
	var unavailable *ModelUnavailableError
	var httpErr *llm.HTTPError

	switch {
	case errors.As(err, &unavailable):
		return review.Failure{
			Diagnostic: fmt.Sprintf("Model '%s' is not available. Pull it with: ollama pull %s",
				c.cfg.Model, c.cfg.Model),
			Recommendations: c.recommendations(),
		}

	case errors.Is(err, llm.ErrTimeout):
		return review.Failure{
			Diagnostic: fmt.Sprintf("Request timed out after %g seconds", c.cfg.Timeout.Seconds()),
			Recommendations: []string{
				fmt.Sprintf("Increase OLLAMA_TIMEOUT environment variable (current: %gs)", c.cfg.Timeout.Seconds()),
				"Use a smaller/faster model",
				fmt.Sprintf("Ensure the model '%s' is already loaded", c.cfg.Model),
			},
		}

	case errors.Is(err, llm.ErrUnreachable):
		return review.Failure{
			Diagnostic: fmt.Sprintf("Cannot connect to Ollama at %s", c.cfg.BaseURL),
			Recommendations: []string{
				"Start Ollama: ollama serve",
				fmt.Sprintf("Check OLLAMA_API_BASE is correct (current: %s)", c.cfg.BaseURL),
				"Ensure firewall/network allows connection",
			},
		}

	case errors.As(err, &httpErr):
		diag := fmt.Sprintf("Ollama returned an error: %d", httpErr.StatusCode)
		if httpErr.StatusCode == http.StatusNotFound {
			diag += fmt.Sprintf("\nModel '%s' not found. Pull it with: ollama pull %s",
				c.cfg.Model, c.cfg.Model)
		} else {
			diag += "\n" + llm.TruncateBody(httpErr.Body, 200)
		}
		return review.Failure{
			Diagnostic:      diag,
			Recommendations: c.recommendations(),
		}

	default:
		return review.GenericFailure(err, c.cfg.Name)
	}
}

func (c *Client) recommendations() []string {
	return []string{
		"Check if Ollama is running",
		"Verify OLLAMA_API_BASE environment variable",
		"Ensure the model specified in OLLAMA_MCP_MODEL is available",
	}
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
