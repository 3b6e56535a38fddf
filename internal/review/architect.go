// Package review runs the critique pipeline: pre-flight, prompt
// construction, backend invocation, extraction and classification.
package review

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/statler-mcp/statler/internal/critique"
	"github.com/statler-mcp/statler/internal/metrics"
)

// Provider is one LLM backend integration. The pipeline is provider
// agnostic; everything backend-specific (pre-flight check, request shape,
// response shape, error remediation) lives behind this interface.
type Provider interface {
	Name() string
	Model() string

	// Preflight validates the backend before spending a request. A nil
	// return means proceed; any error short-circuits the review.
	Preflight(ctx context.Context) error

	// Invoke submits the system and user prompts and returns the raw
	// provider reply. Errors must come from the llm taxonomy.
	Invoke(ctx context.Context, system, user string) ([]byte, error)

	// ExtractText pulls the plain reply text out of the raw payload.
	// It degrades to a stringified payload rather than failing.
	ExtractText(raw []byte) string

	// TranslateError maps a failure onto a diagnostic and remediation
	// steps specific to this provider.
	TranslateError(err error) Failure

	// Close releases the reusable outbound connection.
	Close() error
}

// Failure is a translated error: a one-line diagnostic plus ordered
// remediation steps.
type Failure struct {
	Diagnostic      string
	Recommendations []string
}

// GenericFailure covers error kinds no provider-specific rule claims.
func GenericFailure(err error, provider string) Failure {
	return Failure{
		Diagnostic: fmt.Sprintf("An unexpected error occurred: %T: %v", err, err),
		Recommendations: []string{
			"Check the logs for more details",
			fmt.Sprintf("Ensure %s is properly configured", provider),
			"Try restarting the MCP server",
		},
	}
}

// Architect is one configured review orchestrator bound to a provider.
// Safe for sequential reuse; callers needing parallel reviews should use
// independent instances.
type Architect struct {
	provider Provider
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewArchitect(provider Provider, logger *zap.Logger, m *metrics.Metrics) *Architect {
	return &Architect{
		provider: provider,
		logger:   logger,
		metrics:  m,
	}
}

// Review runs one review cycle and always returns a rendered critique.
// Transport and backend failures come back as an error-shaped critique in
// the same six-section format, never as an error.
func (a *Architect) Review(ctx context.Context, subject, extra string) string {
	start := time.Now()
	a.metrics.IncReviewsInFlight()
	defer a.metrics.DecReviewsInFlight()

	isCode := LooksLikeCode(subject)
	kind := "plan"
	if isCode {
		kind = "code"
	}
	a.logger.Info("starting review",
		zap.String("provider", a.provider.Name()),
		zap.String("kind", kind),
	)

	if err := a.provider.Preflight(ctx); err != nil {
		a.logger.Error("pre-flight check failed", zap.Error(err))
		a.metrics.RecordPreflightFailure(a.provider.Name())
		a.metrics.RecordReview(a.provider.Name(), kind, "preflight_failed", time.Since(start))
		return a.renderFailure(err)
	}

	user := buildUserPrompt(isCode, subject, extra)

	invokeStart := time.Now()
	raw, err := a.provider.Invoke(ctx, SystemPrompt, user)
	if err != nil {
		a.logger.Error("backend invocation failed",
			zap.String("provider", a.provider.Name()),
			zap.Error(err),
		)
		a.metrics.RecordLLMRequest(a.provider.Name(), "error", time.Since(invokeStart))
		a.metrics.RecordReview(a.provider.Name(), kind, "error", time.Since(start))
		return a.renderFailure(err)
	}
	a.metrics.RecordLLMRequest(a.provider.Name(), "ok", time.Since(invokeStart))

	text := a.provider.ExtractText(raw)
	doc := critique.Classify(text)

	a.metrics.RecordReview(a.provider.Name(), kind, "ok", time.Since(start))
	return doc.Render()
}

// Close releases the provider's outbound connection. An Architect must not
// be used after Close.
func (a *Architect) Close() error {
	return a.provider.Close()
}

func (a *Architect) renderFailure(err error) string {
	f := a.provider.TranslateError(err)
	doc := critique.Document{
		Critical:        []string{"🔴 " + f.Diagnostic},
		Major:           []string{"Cannot perform review without working LLM connection"},
		Recommendations: f.Recommendations,
		Overall:         "Review failed - fix the connection and try again",
	}
	return doc.Render()
}
