// Chat sessions against the hosted model endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// Conversation roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one message in the conversation history.
type Turn struct {
	Role string
	Text string
}

// ChatSession sends one user message against the prior history and returns
// the reply text. Implementations are stateless with respect to history: the
// caller owns it and replays it on every send.
type ChatSession interface {
	Send(ctx context.Context, history []Turn, message string) (string, error)
}

// NewChatSession selects the provider implementation from configuration.
func NewChatSession(ctx context.Context, config *Config, systemPrompt string) (ChatSession, error) {
	switch config.Provider {
	case "", "gemini":
		return newGeminiSession(ctx, config, systemPrompt)
	case "openai":
		return newOpenAISession(config, systemPrompt), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
}

// geminiSession talks to the Gemini API through the official genai client.
type geminiSession struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func newGeminiSession(ctx context.Context, config *Config, systemPrompt string) (*geminiSession, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiSession{
		client: client,
		model:  config.Model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		},
	}, nil
}

func (s *geminiSession) Send(ctx context.Context, history []Turn, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, s.config)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}

// openaiSession talks to an OpenAI-compatible chat completions endpoint.
type openaiSession struct {
	client       openai.Client
	model        openai.ChatModel
	systemPrompt string
}

func newOpenAISession(config *Config, systemPrompt string) *openaiSession {
	opts := []option.RequestOption{}
	if config.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.OpenAIBaseURL))
	}
	if config.OpenAIAPIKey != "" {
		opts = append(opts, option.WithAPIKey(config.OpenAIAPIKey))
	}
	return &openaiSession{
		client:       openai.NewClient(opts...),
		model:        openai.ChatModel(config.Model),
		systemPrompt: systemPrompt,
	}
}

func (s *openaiSession) Send(ctx context.Context, history []Turn, message string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(s.systemPrompt))
	for _, turn := range history {
		if turn.Role == RoleModel {
			messages = append(messages, openai.AssistantMessage(turn.Text))
		} else {
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty completion choices")
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}
