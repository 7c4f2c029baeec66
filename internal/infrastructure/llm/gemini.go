// Package llm implements the grading, rubric parsing, and summarization
// ports on the Gemini API. One client serves all three so the connection and
// credentials are shared.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/infrastructure/config"
	"github.com/gradeflow/backend/internal/infrastructure/telemetry"
)

// Gemini calls the Gemini generative models. It implements
// grading.DocumentGrader, rubric.Parser, and grading.PerformanceSummarizer.
// The underlying client is created on first use so the server can start
// without an API key; calls fail with ErrGraderNotConfigured until one is
// set.
type Gemini struct {
	cfg     *config.GeminiConfig
	logger  *zap.Logger
	metrics *telemetry.GradingMetrics

	mu     sync.Mutex
	client *genai.Client
}

// GeminiOption customizes the adapter
type GeminiOption func(*Gemini)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) GeminiOption {
	return func(g *Gemini) {
		g.logger = logger
	}
}

// WithMetrics enables per-call metrics recording
func WithMetrics(metrics *telemetry.GradingMetrics) GeminiOption {
	return func(g *Gemini) {
		g.metrics = metrics
	}
}

// NewGemini creates the adapter from configuration
func NewGemini(cfg *config.GeminiConfig, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Close releases the underlying client connection
func (g *Gemini) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

// ensureClient creates the API client once. The client's own lifetime is not
// tied to the calling request, hence the background context.
func (g *Gemini) ensureClient() (*genai.Client, error) {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return nil, grading.ErrGraderNotConfigured
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(strings.TrimSpace(g.cfg.APIKey)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", grading.ErrGraderNotConfigured, err)
	}
	g.client = client
	return client, nil
}

// model builds a configured generative model. A negative temperature leaves
// the model on API defaults, which is what the class summary uses.
func (g *Gemini) model(temperature float64) (*genai.GenerativeModel, error) {
	client, err := g.ensureClient()
	if err != nil {
		return nil, err
	}

	m := client.GenerativeModel(g.cfg.Model)
	if temperature >= 0 {
		m.SetTemperature(float32(temperature))
		m.SetTopP(float32(g.cfg.TopP))
		m.SetTopK(int32(g.cfg.TopK))
		m.SetMaxOutputTokens(int32(g.cfg.MaxOutputTokens))
	}
	return m, nil
}

// generateText runs one generation call under the configured timeout and
// returns the concatenated text parts of the first candidate.
func (g *Gemini) generateText(ctx context.Context, op telemetry.GeminiOperation, temperature float64, prompt string) (string, error) {
	m, err := g.model(temperature)
	if err != nil {
		return "", err
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	g.recordCall(ctx, op, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %v", grading.ErrGraderRequestFailed, err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", grading.ErrGraderBadResponse)
	}
	return text, nil
}

func (g *Gemini) recordCall(ctx context.Context, op telemetry.GeminiOperation, duration time.Duration, err error) {
	if g.metrics == nil {
		return
	}
	g.metrics.RecordGeminiCall(ctx, op, g.cfg.Model, duration, err)
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
