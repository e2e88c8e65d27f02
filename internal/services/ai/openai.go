// Package ai wraps the OpenAI-compatible chat completion endpoint used
// for intent classification, SQL generation and answer synthesis.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/config"
	"github.com/mosefak/medchat/internal/models"
)

// ErrQuotaExceeded is returned when the upstream provider rejects the
// request for billing or quota reasons. Callers translate it into a
// canned user-facing message instead of surfacing the raw error.
var ErrQuotaExceeded = errors.New("ai: API quota exceeded")

// Service represents the language model service interface
type Service interface {
	Generate(ctx context.Context, system string, history []models.Message, prompt string) (string, error)
	Translate(ctx context.Context, text string) (string, error)
}

// OpenAI implements Service against any OpenAI-compatible endpoint
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	maxRetries  int
	logger      *logrus.Logger
}

// NewOpenAI creates a new language model service
func NewOpenAI(cfg *config.ModelConfig, logger *logrus.Logger) Service {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	logger.WithFields(logrus.Fields{
		"model":   cfg.Name,
		"baseURL": clientCfg.BaseURL,
	}).Info("AI service initialized")

	return &OpenAI{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Name,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		logger:      logger,
	}
}

// Generate runs a chat completion with an optional system prompt, prior
// conversation history and the current user prompt, with retry logic.
func (s *OpenAI) Generate(ctx context.Context, system string, history []models.Message, prompt string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		response, err := s.complete(ctx, msgs, attempt)
		if err == nil {
			return response, nil
		}

		lastErr = err
		if errors.Is(err, ErrQuotaExceeded) || isClientError(err) {
			return "", err
		}

		s.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
			"model":   s.model,
		}).Warn("AI request failed, retrying...")

		if attempt < s.maxRetries {
			// Exponential backoff: 2s, 4s, 8s
			waitTime := time.Duration(2<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return "", fmt.Errorf("all retry attempts failed: %w", lastErr)
}

// Translate rewrites non-English text into English so retrieval over
// the English knowledge base still finds the relevant passages.
func (s *OpenAI) Translate(ctx context.Context, text string) (string, error) {
	const system = "You are a translator. Translate the user's text into English. " +
		"Return only the translation with no commentary."
	return s.Generate(ctx, system, nil, text)
}

// complete performs a single request attempt
func (s *OpenAI) complete(ctx context.Context, msgs []openai.ChatCompletionMessage, attempt int) (string, error) {
	s.logger.WithFields(logrus.Fields{
		"model":   s.model,
		"attempt": attempt,
	}).Debug("Sending AI request")

	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    msgs,
		Temperature: s.temperature,
	})
	if err != nil {
		if isQuotaError(err) {
			return "", ErrQuotaExceeded
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from AI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return true
		}
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return true
		}
	}
	return false
}

func isClientError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		// Don't retry for client errors (4xx)
		return apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500
	}
	return false
}
