package adapter

// #region imports
import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// #endregion

// #region mock

// Mock simulates a chat model for development without API keys. Responses
// rotate through a small set of templates echoing a prefix of the last user
// message.
type Mock struct {
	mu  sync.Mutex
	idx int
}

// NewMock returns a mock adapter.
func NewMock() *Mock {
	return &Mock{}
}

var mockTemplates = []string{
	"[MOCK] I received your data: '%s'. Processing complete.",
	"[MOCK] The Sentinel system is online. Simulated response to: '%s'",
	"[MOCK] Analysis: Nominal. Input '%s' recorded in memory lattice.",
	"[MOCK] Shannon Prime acknowledges your query: '%s'",
}

// Chat returns a simulated completion. Never fails except on ctx cancellation.
func (m *Mock) Chat(ctx context.Context, messages []Message) (Completion, error) {
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}

	last := "..."
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			last = messages[i].Content
			break
		}
	}

	m.mu.Lock()
	template := mockTemplates[m.idx%len(mockTemplates)]
	m.idx++
	m.mu.Unlock()

	content := fmt.Sprintf(template, prefix(last, 20))

	return Completion{
		ID:      "chatcmpl-" + uuid.New().String(),
		Created: time.Now().Unix(),
		Model:   "mock-gpt-4",
		Choices: []Choice{{
			Index:        0,
			Message:      Message{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}, nil
}

// prefix truncates s to at most n runes.
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// #endregion
