package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"plufi-chat/internal/models"
)

// Reply sources, used for metrics and tests.
const (
	SourceProvider = "provider"
	SourceFallback = "fallback"
)

// Responder is the text-completion collaborator. Reply always returns some
// string; provider errors degrade to the local fallback and never propagate.
type Responder interface {
	Reply(ctx context.Context, userMessage string, history []models.Message, displayName string) (string, string)
}

const historyWindow = 12

// OpenAIResponder calls the completion API with a bounded timeout and falls
// back to deterministic replies when the provider is unavailable.
type OpenAIResponder struct {
	client       *openai.Client
	model        string
	systemPrompt string
	botUsername  string
	timeout      time.Duration
}

// NewOpenAIResponder constructs a responder. An empty API key leaves the
// client nil and every reply comes from the fallback.
func NewOpenAIResponder(apiKey, model, systemPrompt, botUsername string, timeout time.Duration) *OpenAIResponder {
	r := &OpenAIResponder{
		model:        model,
		systemPrompt: systemPrompt,
		botUsername:  botUsername,
		timeout:      timeout,
	}
	if apiKey != "" {
		r.client = openai.NewClient(apiKey)
	}
	return r
}

// Reply generates the bot's answer to userMessage given recent history.
func (r *OpenAIResponder) Reply(ctx context.Context, userMessage string, history []models.Message, displayName string) (string, string) {
	if r.client == nil {
		return FallbackReply(userMessage, history), SourceFallback
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: r.buildMessages(userMessage, history, displayName),
	})
	if err != nil || len(resp.Choices) == 0 {
		if err != nil {
			log.Printf("ai completion failed, using fallback: %v", err)
		}
		return FallbackReply(userMessage, history), SourceFallback
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return FallbackReply(userMessage, history), SourceFallback
	}
	return text, SourceProvider
}

func (r *OpenAIResponder) buildMessages(userMessage string, history []models.Message, displayName string) []openai.ChatCompletionMessage {
	system := r.systemPrompt
	if displayName != "" {
		system = fmt.Sprintf("%s\nUser display name: %s.\nKeep replies practical, clear, and short unless the user asks for detail.", system, displayName)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
	}

	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	for _, msg := range history[start:] {
		body := strings.TrimSpace(msg.Body)
		if body == "" {
			continue
		}
		role := openai.ChatMessageRoleUser
		if strings.EqualFold(msg.SenderUsername, r.botUsername) {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: body})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})
}

// FallbackReply is the deterministic local responder used whenever the
// provider is unavailable or misconfigured.
func FallbackReply(text string, history []models.Message) string {
	value := strings.TrimSpace(text)
	lowered := strings.ToLower(value)

	switch {
	case containsAny(lowered, "hello", "hi", "hey"):
		return "Hey. I am your AI assistant in Plufi Chat. Ask me anything."
	case strings.Contains(lowered, "help"):
		return "I can help with ideas, writing, coding, budgeting plans, and quick answers. " +
			"Try asking me to summarize, rewrite, plan, or explain."
	case strings.Contains(lowered, "budget"):
		return "A simple rule to start: 50% needs, 30% wants, 20% savings/debt payoff."
	case strings.Contains(lowered, "summarize") && len(history) > 0:
		return "Recent chat summary: " + historySample(history)
	case value == "":
		return "Send a message and I will respond."
	}
	return fmt.Sprintf("I received: %q. Tell me what you want me to do with it.", value)
}

func historySample(history []models.Message) string {
	start := 0
	if len(history) > 3 {
		start = len(history) - 3
	}
	parts := make([]string, 0, 3)
	for _, msg := range history[start:] {
		if body := strings.TrimSpace(msg.Body); body != "" {
			parts = append(parts, body)
		}
	}
	sample := strings.Join(parts, " | ")
	if sample == "" {
		return "No recent content."
	}
	if len(sample) > 220 {
		sample = sample[:220]
	}
	return sample
}

func containsAny(value string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(value, word) {
			return true
		}
	}
	return false
}
