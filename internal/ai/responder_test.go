package ai

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plufi-chat/internal/models"
)

func TestFallbackReplyGreeting(t *testing.T) {
	reply := FallbackReply("hello there", nil)
	assert.Contains(t, reply, "AI assistant")
}

func TestFallbackReplyHelp(t *testing.T) {
	reply := FallbackReply("can you help me?", nil)
	assert.Contains(t, reply, "summarize")
}

func TestFallbackReplyBudget(t *testing.T) {
	reply := FallbackReply("plan my budget", nil)
	assert.Contains(t, reply, "50%")
}

func TestFallbackReplySummarizeUsesHistory(t *testing.T) {
	history := []models.Message{
		{Body: "first"},
		{Body: "second"},
		{Body: "third"},
		{Body: "fourth"},
	}
	reply := FallbackReply("summarize this chat", history)
	assert.Contains(t, reply, "second | third | fourth")
	assert.NotContains(t, reply, "first")
}

func TestFallbackReplyEmptyInput(t *testing.T) {
	assert.Equal(t, "Send a message and I will respond.", FallbackReply("   ", nil))
}

func TestFallbackReplyEchoesUnknownInput(t *testing.T) {
	reply := FallbackReply("quantum entanglement", nil)
	assert.Contains(t, reply, `"quantum entanglement"`)
}

func TestFallbackReplyIsDeterministic(t *testing.T) {
	a := FallbackReply("quantum entanglement", nil)
	b := FallbackReply("quantum entanglement", nil)
	assert.Equal(t, a, b)
}

func TestResponderWithoutKeyUsesFallback(t *testing.T) {
	r := NewOpenAIResponder("", "gpt-4o-mini", "prompt", "plufi_ai", time.Second)

	reply, source := r.Reply(context.Background(), "hello", nil, "alice")
	assert.Equal(t, SourceFallback, source)
	assert.NotEmpty(t, reply)
}

func TestBuildMessagesAssignsRoles(t *testing.T) {
	r := NewOpenAIResponder("key", "gpt-4o-mini", "prompt", "plufi_ai", time.Second)

	history := []models.Message{
		{SenderUsername: "alice", Body: "hi bot"},
		{SenderUsername: "plufi_ai", Body: "hi alice"},
		{SenderUsername: "alice", Body: "  "},
	}
	messages := r.buildMessages("what now?", history, "alice")

	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "alice")
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Equal(t, "what now?", messages[3].Content)
}

func TestBuildMessagesBoundsHistory(t *testing.T) {
	r := NewOpenAIResponder("key", "gpt-4o-mini", "prompt", "plufi_ai", time.Second)

	history := make([]models.Message, 30)
	for i := range history {
		history[i] = models.Message{SenderUsername: "alice", Body: strings.Repeat("x", i+1)}
	}
	messages := r.buildMessages("latest", history, "alice")

	// system + bounded history + the triggering message
	require.Len(t, messages, 1+historyWindow+1)
}
