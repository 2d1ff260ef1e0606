package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hunt_backend/internal/config"
	"hunt_backend/internal/util"
	"hunt_backend/pkg/monitoring"
	"hunt_backend/pkg/tracing"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

// Evaluator scores a submitted answer against the accepted variants.
// Scores are in [0,100]; failures wrap util.ErrEvaluatorUnavailable.
type Evaluator interface {
	Evaluate(ctx context.Context, submittedText string, acceptedVariants []string) (int, error)
}

const evaluatorSystemPrompt = "You grade answers in a treasure hunt. Compare the participant's answer " +
	"with the accepted answers and reply with a single integer from 0 to 100 saying how closely it " +
	"matches the best accepted answer. Ignore letter case, diacritics and small typos. Reply with the number only."

func evaluatorUserPrompt(submittedText string, acceptedVariants []string) string {
	var b strings.Builder
	b.WriteString("Accepted answers:\n")
	for _, v := range acceptedVariants {
		b.WriteString("- ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	b.WriteString("Participant answer: ")
	b.WriteString(submittedText)
	return b.String()
}

var (
	scorePattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	// "85/100" and "85 out of 100" carry one score, not two
	outOf100Pattern = regexp.MustCompile(`(?i)\s*(?:/|out of)\s*100\b`)
)

// ParseScore reads the score from a model reply. The reply must contain
// exactly one number in [0,100]; anything else is reported as
// util.ErrEvaluatorUnavailable so the answer is evaluated again later.
func ParseScore(reply string) (int, error) {
	matches := scorePattern.FindAllString(outOf100Pattern.ReplaceAllString(reply, ""), -1)
	if len(matches) != 1 {
		return 0, fmt.Errorf("%w: expected one score in reply %q", util.ErrEvaluatorUnavailable, reply)
	}
	score, err := strconv.Atoi(matches[0])
	if err != nil || score < 0 || score > 100 {
		return 0, fmt.Errorf("%w: invalid score in reply %q", util.ErrEvaluatorUnavailable, reply)
	}
	return score, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// AIEvaluator asks an OpenAI-compatible chat completions API for the score.
type AIEvaluator struct {
	config config.EvaluatorConfig
	client *http.Client
}

func NewAIEvaluator(cfg config.EvaluatorConfig) *AIEvaluator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AIEvaluator{config: cfg, client: &http.Client{Timeout: timeout}}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (e *AIEvaluator) Evaluate(ctx context.Context, submittedText string, acceptedVariants []string) (int, error) {
	reqBody := ChatCompletionRequest{
		Model: e.config.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: evaluatorSystemPrompt},
			{Role: "user", Content: evaluatorUserPrompt(submittedText, acceptedVariants)},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(e.config.BaseURL, "/")+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", util.ErrEvaluatorUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: AI API error (status %d): %s", util.ErrEvaluatorUnavailable, resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("%w: decode reply: %v", util.ErrEvaluatorUnavailable, err)
	}
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %s", util.ErrEvaluatorUnavailable, result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return 0, fmt.Errorf("%w: AI returned no choices", util.ErrEvaluatorUnavailable)
	}

	return ParseScore(result.Choices[0].Message.Content)
}

// GeminiEvaluator asks a Gemini model for the score.
type GeminiEvaluator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiEvaluator(ctx context.Context, cfg config.EvaluatorConfig) (*GeminiEvaluator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiEvaluator{client: client, model: model, timeout: timeout}, nil
}

func (e *GeminiEvaluator) Evaluate(ctx context.Context, submittedText string, acceptedVariants []string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := evaluatorSystemPrompt + "\n\n" + evaluatorUserPrompt(submittedText, acceptedVariants)

	result, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", util.ErrEvaluatorUnavailable, err)
	}

	text := result.Text()
	if text == "" {
		return 0, fmt.Errorf("%w: empty reply from model", util.ErrEvaluatorUnavailable)
	}
	return ParseScore(text)
}

// InstrumentedEvaluator records metrics and a span for every call and keeps
// scores inside [0,100].
type InstrumentedEvaluator struct {
	Next     Evaluator
	Provider string
}

func (e *InstrumentedEvaluator) Evaluate(ctx context.Context, submittedText string, acceptedVariants []string) (int, error) {
	ctx, span := tracing.Tracer.Start(ctx, "evaluator.evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("evaluator.provider", e.Provider),
		attribute.Int("evaluator.variants", len(acceptedVariants)),
	)

	start := time.Now()
	score, err := e.Next.Evaluate(ctx, submittedText, acceptedVariants)
	monitoring.EvaluationDuration.WithLabelValues(e.Provider).Observe(time.Since(start).Seconds())

	if err != nil {
		if !errors.Is(err, util.ErrEvaluatorUnavailable) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", util.ErrEvaluatorUnavailable, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	score = clampScore(score)
	span.SetAttributes(attribute.Int("evaluator.score", score))
	return score, nil
}

// NewEvaluator builds the configured provider wrapped with instrumentation.
func NewEvaluator(ctx context.Context, cfg config.EvaluatorConfig) (Evaluator, error) {
	var next Evaluator
	switch cfg.Provider {
	case "openai", "":
		next = NewAIEvaluator(cfg)
	case "gemini":
		g, err := NewGeminiEvaluator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		next = g
	default:
		return nil, fmt.Errorf("unknown evaluator provider %q", cfg.Provider)
	}
	return &InstrumentedEvaluator{Next: next, Provider: cfg.Provider}, nil
}
