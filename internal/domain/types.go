package domain

// Roles accepted in chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound payload of POST /api/chat. MaxTokens and
// Temperature are pointers so an absent field can be told apart from a zero
// value before defaults are applied.
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// ChatResponse is the normalized reply returned to the caller. Model carries
// what the upstream actually reported, which may differ from the requested
// model after normalization.
type ChatResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	Usage    *Usage `json:"usage,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
