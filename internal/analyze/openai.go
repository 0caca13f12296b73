package analyze

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"broll/internal/config"
	"broll/internal/segment"
)

const systemPrompt = `You pick b-roll moments from stock footage for a video editor.
Reply with a JSON array only. Each element has start_sec, end_sec, quality_score (0-1),
uniqueness_score (0-1), notes (what is on screen), type (e.g. establishing, detail, action),
and confidence (0-1). Prefer distinct moments that do not overlap.`

// ChatClient is the subset of the OpenAI client used here.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIAnalyzer asks a chat-completions model for candidate segments.
type OpenAIAnalyzer struct {
	client      ChatClient
	model       string
	maxSegments int
	timeout     time.Duration
}

// NewOpenAIAnalyzer builds a client from the configured key variable and base URL.
func NewOpenAIAnalyzer(cfg config.AnalyzerConfig) (*OpenAIAnalyzer, error) {
	key := strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	if key == "" {
		return nil, fmt.Errorf("environment variable %s is not set", cfg.APIKeyEnv)
	}
	clientConfig := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return NewOpenAIAnalyzerWithClient(openai.NewClientWithConfig(clientConfig), cfg), nil
}

// NewOpenAIAnalyzerWithClient wires an existing client.
func NewOpenAIAnalyzerWithClient(client ChatClient, cfg config.AnalyzerConfig) *OpenAIAnalyzer {
	return &OpenAIAnalyzer{
		client:      client,
		model:       cfg.Model,
		maxSegments: cfg.MaxSegmentsPerVideo,
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
	}
}

func (o *OpenAIAnalyzer) Name() string { return "openai:" + o.model }

func (o *OpenAIAnalyzer) Analyze(ctx context.Context, pair Pair) ([]segment.Raw, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	limit := o.maxSegments
	if pair.Limit > 0 && (limit <= 0 || pair.Limit < limit) {
		limit = pair.Limit
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(pair, limit)},
		},
		Temperature: 0.2,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	reply, ok := extractJSON(resp.Choices[0].Message.Content)
	if !ok {
		return nil, errors.New("reply did not contain a JSON segment list")
	}
	raws := segment.FromResult(reply)
	if limit > 0 && len(raws) > limit {
		raws = raws[:limit]
	}
	return raws, nil
}

func userPrompt(pair Pair, max int) string {
	return fmt.Sprintf("Keyword: %s\nVideo file: %s\nReturn at most %d segments.", pair.Keyword, pair.VideoName(), max)
}

// extractJSON finds the segment list in a model reply that may wrap it in
// prose or code fences.
func extractJSON(content string) (gjson.Result, bool) {
	content = strings.TrimSpace(content)
	if gjson.Valid(content) {
		return gjson.Parse(content), true
	}
	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(content, pair[0])
		end := strings.LastIndex(content, pair[1])
		if start < 0 || end <= start {
			continue
		}
		if candidate := content[start : end+1]; gjson.Valid(candidate) {
			return gjson.Parse(candidate), true
		}
	}
	return gjson.Result{}, false
}
