package llm

import "time"

// Tier orders providers by how much the user trusts/pays for them. Lower
// values are tried first.
type Tier int

const (
	TierBYOK Tier = iota // user-supplied API key
	TierAuth             // community proxy, authenticated
	TierAnon             // community proxy, anonymous
	TierLocal            // local model runner
)

func (t Tier) String() string {
	switch t {
	case TierBYOK:
		return "byok"
	case TierAuth:
		return "auth"
	case TierAnon:
		return "anon"
	case TierLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Message is one turn of a conversation.
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on role "tool"
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // set on assistant turns that called tools
}

// ToolDef describes a callable tool in the JSON-schema shape the chat
// completions API expects.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a single function invocation requested by the model.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// GenerateOptions carries everything a provider needs for one request.
type GenerateOptions struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
	Stop        []string

	// Multi-turn conversation; when set, Prompt is ignored.
	Messages []Message

	// Tool calling; only providers with SupportsTools honor these.
	Tools []ToolDef
}

// Usage is token accounting for a single response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RateLimit describes the current quota window for a provider.
type RateLimit struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	Tier      Tier
}

// Limited reports whether the quota is exhausted. An exhausted window opens
// again once ResetAt passes; a window with no known reset stays closed until
// the next successful call or probe refreshes it.
func (r RateLimit) Limited() bool {
	if r.Limit <= 0 || r.Remaining > 0 {
		return false
	}
	return r.ResetAt.IsZero() || time.Now().Before(r.ResetAt)
}

// Response is a completed generation.
type Response struct {
	Text         string
	Model        string
	Provider     string
	Usage        Usage
	FinishReason string
	ToolCalls    []ToolCall
	RateLimit    *RateLimit
}

// HasToolCalls reports whether the model asked for tools instead of
// answering directly.
func (r Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}
