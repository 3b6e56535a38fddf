package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/statler-mcp/statler/internal/config"
	"github.com/statler-mcp/statler/internal/llm"
	"github.com/statler-mcp/statler/internal/review"
)

func testClient(baseURL string) *Client {
	return New(&config.Provider{
		Name:      "Ollama",
		EnvPrefix: "OLLAMA",
		BaseURL:   baseURL,
		Model:     "llama3.2",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
}

func TestPreflight(t *testing.T) {
	tests := []struct {
		name    string
		tags    string
		wantErr bool
	}{
		{
			name:    "exact model match",
			tags:    `{"models":[{"name":"llama3.2"},{"name":"mistral"}]}`,
			wantErr: false,
		},
		{
			name:    "versioned model match",
			tags:    `{"models":[{"name":"llama3.2:latest"}]}`,
			wantErr: false,
		},
		{
			name:    "model missing",
			tags:    `{"models":[{"name":"mistral"}]}`,
			wantErr: true,
		},
		{
			name:    "empty model list",
			tags:    `{"models":[]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/tags" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				fmt.Fprint(w, tt.tags)
			}))
			defer server.Close()

			err := testClient(server.URL).Preflight(context.Background())

			if tt.wantErr {
				var unavailable *ModelUnavailableError
				if !errors.As(err, &unavailable) {
					t.Errorf("Preflight() error = %v, want ModelUnavailableError", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Preflight() unexpected error = %v", err)
			}
		})
	}
}

func TestPreflightServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	err := testClient(server.URL).Preflight(context.Background())

	var unavailable *ModelUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Preflight() error = %v, want ModelUnavailableError", err)
	}
}

func TestExtractText(t *testing.T) {
	client := testClient("http://localhost:11434")

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "chat message content",
			raw:  `{"message":{"role":"assistant","content":"looks bad"}}`,
			want: "looks bad",
		},
		{
			name: "legacy response field",
			raw:  `{"response":"generated text"}`,
			want: "generated text",
		},
		{
			name: "direct content field",
			raw:  `{"content":"direct"}`,
			want: "direct",
		},
		{
			name: "unexpected shape falls back to raw payload",
			raw:  `{"weird":true}`,
			want: `{"weird":true}`,
		},
		{
			name: "message without content yields empty string",
			raw:  `{"message":{"role":"assistant"}}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := client.ExtractText([]byte(tt.raw)); got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"ok"}}`)
	}))
	defer server.Close()

	client := testClient(server.URL)
	raw, err := client.Invoke(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Invoke() unexpected error = %v", err)
	}
	if got := client.ExtractText(raw); got != "ok" {
		t.Errorf("extracted %q, want %q", got, "ok")
	}
}

func TestTranslateError(t *testing.T) {
	client := testClient("http://localhost:11434")

	tests := []struct {
		name          string
		err           error
		wantDiag      []string
		wantRecsCount int
	}{
		{
			name:          "model unavailable",
			err:           &ModelUnavailableError{Model: "llama3.2"},
			wantDiag:      []string{"llama3.2", "ollama pull llama3.2"},
			wantRecsCount: 3,
		},
		{
			name:          "timeout names configured value",
			err:           fmt.Errorf("%w: deadline", llm.ErrTimeout),
			wantDiag:      []string{"timed out after 5 seconds"},
			wantRecsCount: 3,
		},
		{
			name:          "unreachable names base url",
			err:           fmt.Errorf("%w: refused", llm.ErrUnreachable),
			wantDiag:      []string{"Cannot connect to Ollama at http://localhost:11434"},
			wantRecsCount: 3,
		},
		{
			name:          "http 404 suggests pulling the model",
			err:           &llm.HTTPError{StatusCode: 404, Body: []byte(`{"error":"model not found"}`)},
			wantDiag:      []string{"404", "Model 'llama3.2' not found", "ollama pull llama3.2"},
			wantRecsCount: 3,
		},
		{
			name:          "other http status includes body",
			err:           &llm.HTTPError{StatusCode: 500, Body: []byte("internal failure")},
			wantDiag:      []string{"500", "internal failure"},
			wantRecsCount: 3,
		},
		{
			name:          "unexpected error includes type and message",
			err:           errors.New("odd failure"),
			wantDiag:      []string{"unexpected error", "*errors.errorString", "odd failure"},
			wantRecsCount: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := client.TranslateError(tt.err)

			for _, want := range tt.wantDiag {
				if !strings.Contains(f.Diagnostic, want) {
					t.Errorf("Diagnostic = %q, want substring %q", f.Diagnostic, want)
				}
			}
			if len(f.Recommendations) != tt.wantRecsCount {
				t.Errorf("got %d recommendations, want %d", len(f.Recommendations), tt.wantRecsCount)
			}
			if f.Diagnostic == "" {
				t.Error("Diagnostic must not be empty")
			}
		})
	}
}

func TestTranslateErrorHTTPBodyTruncated(t *testing.T) {
	client := testClient("http://localhost:11434")
	long := strings.Repeat("x", 500)

	f := client.TranslateError(&llm.HTTPError{StatusCode: 502, Body: []byte(long)})

	if strings.Contains(f.Diagnostic, long) {
		t.Error("body was not truncated")
	}
	if !strings.Contains(f.Diagnostic, strings.Repeat("x", 200)) {
		t.Error("truncated body missing from diagnostic")
	}
}

func TestFullReviewScenario(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprint(w, `{"models":[{"name":"llama3.2:latest"}]}`)
		case "/api/chat":
			fmt.Fprint(w, `{"message":{"content":"Critical: SQL injection risk. Recommend: use parameterized queries."}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	architect := review.NewArchitect(testClient(server.URL), zap.NewNop(), nil)
	defer architect.Close()

	out := architect.Review(context.Background(), "def foo():\n    return 1", "")

	if !strings.Contains(out, "SQL injection risk") {
		t.Errorf("critical section missing SQL injection line:\n%s", out)
	}
	if !strings.Contains(out, "Severity level: high") {
		t.Errorf("overall severity not high:\n%s", out)
	}
}

func TestFullReviewModelNotInstalled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprint(w, `{"models":[{"name":"mistral"}]}`)
		case "/api/chat":
			t.Error("chat endpoint must not be hit when the model is missing")
		}
	}))
	defer server.Close()

	architect := review.NewArchitect(testClient(server.URL), zap.NewNop(), nil)
	defer architect.Close()

	out := architect.Review(context.Background(), "def foo():\n    return 1", "")

	if !strings.Contains(out, "Model 'llama3.2' is not available") {
		t.Errorf("missing model diagnostic not rendered:\n%s", out)
	}
	if !strings.Contains(out, "ollama pull llama3.2") {
		t.Errorf("pull instruction missing:\n%s", out)
	}
	if !strings.Contains(out, "Review failed - fix the connection and try again") {
		t.Errorf("failure overall missing:\n%s", out)
	}
}
