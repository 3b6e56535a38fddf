package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	preflightErr error
	reply        string
	invokeErr    error

	invoked    int
	lastSystem string
	lastUser   string
	closed     bool
}

func (f *fakeProvider) Name() string  { return "Fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Preflight(ctx context.Context) error { return f.preflightErr }

func (f *fakeProvider) Invoke(ctx context.Context, system, user string) ([]byte, error) {
	f.invoked++
	f.lastSystem = system
	f.lastUser = user
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	return []byte(f.reply), nil
}

func (f *fakeProvider) ExtractText(raw []byte) string { return string(raw) }

func (f *fakeProvider) TranslateError(err error) Failure {
	return Failure{
		Diagnostic:      "translated: " + err.Error(),
		Recommendations: []string{"step one", "step two"},
	}
}

func (f *fakeProvider) Close() error {
	f.closed = true
	return nil
}

func newTestArchitect(p Provider) *Architect {
	return NewArchitect(p, zap.NewNop(), nil)
}

func TestReviewSuccess(t *testing.T) {
	fake := &fakeProvider{
		reply: "Critical: SQL injection risk here.\nRecommend: use parameterized queries.",
	}
	architect := newTestArchitect(fake)

	out := architect.Review(context.Background(), "def foo():\n    return 1", "")

	assert.Contains(t, out, "SQL injection risk")
	assert.Contains(t, out, "use parameterized queries")
	assert.Contains(t, out, "Severity level: high")
	assert.Equal(t, 1, fake.invoked)
	assert.Equal(t, SystemPrompt, fake.lastSystem)
}

func TestReviewPromptSelection(t *testing.T) {
	t.Run("code input uses code template", func(t *testing.T) {
		fake := &fakeProvider{reply: "fine"}
		newTestArchitect(fake).Review(context.Background(), "def foo():\n    return 1", "")

		assert.Contains(t, fake.lastUser, "Review the following code critically")
		assert.Contains(t, fake.lastUser, "No additional context provided")
	})

	t.Run("plan input uses architecture template", func(t *testing.T) {
		fake := &fakeProvider{reply: "fine"}
		newTestArchitect(fake).Review(context.Background(),
			"We should split the payment service from the order service", "billing rework")

		assert.Contains(t, fake.lastUser, "Review the following architectural plan or design")
		assert.Contains(t, fake.lastUser, "billing rework")
	})
}

func TestReviewPreflightShortCircuit(t *testing.T) {
	fake := &fakeProvider{preflightErr: errors.New("model missing")}
	out := newTestArchitect(fake).Review(context.Background(), "anything", "")

	assert.Equal(t, 0, fake.invoked, "backend must not be called after a failed pre-flight")
	assert.Contains(t, out, "🔴 translated: model missing")
	assert.Contains(t, out, "Cannot perform review without working LLM connection")
	assert.Contains(t, out, "step one")
	assert.Contains(t, out, "step two")
	assert.Contains(t, out, "Review failed - fix the connection and try again")
}

func TestReviewInvokeFailure(t *testing.T) {
	fake := &fakeProvider{invokeErr: errors.New("boom")}
	out := newTestArchitect(fake).Review(context.Background(), "anything", "")

	assert.Equal(t, 1, fake.invoked)
	assert.Contains(t, out, "🔴 translated: boom")
	assert.Contains(t, out, "Review failed - fix the connection and try again")
}

func TestReviewIdempotent(t *testing.T) {
	fake := &fakeProvider{reply: "Major: the cache is never invalidated."}
	architect := newTestArchitect(fake)

	first := architect.Review(context.Background(), "plan text", "ctx")
	second := architect.Review(context.Background(), "plan text", "ctx")

	assert.Equal(t, first, second)
}

func TestReviewErrorOutputIsRenderedCritique(t *testing.T) {
	// Error responses must read like a normal critique so callers never
	// special-case them.
	fake := &fakeProvider{invokeErr: errors.New("boom")}
	out := newTestArchitect(fake).Review(context.Background(), "x", "")

	for _, heading := range []string{
		"## Critical Issues",
		"## Major Concerns",
		"## Recommendations",
		"## Overall Assessment",
	} {
		assert.Contains(t, out, heading)
	}
}

func TestArchitectClose(t *testing.T) {
	fake := &fakeProvider{}
	architect := newTestArchitect(fake)

	require.NoError(t, architect.Close())
	assert.True(t, fake.closed)
}

func TestGenericFailure(t *testing.T) {
	f := GenericFailure(errors.New("odd"), "Ollama")

	assert.Contains(t, f.Diagnostic, "*errors.errorString")
	assert.Contains(t, f.Diagnostic, "odd")
	require.Len(t, f.Recommendations, 3)
	assert.Contains(t, f.Recommendations[1], "Ollama")
}
