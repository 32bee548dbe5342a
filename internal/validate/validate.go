// Package validate checks inbound chat requests against the gateway's
// structural and range constraints before anything reaches the upstream
// client. Rules run in a fixed order and the first violation wins.
package validate

import (
	"fmt"
	"unicode/utf8"

	"github.com/felipepmaragno/chatbot-gateway/internal/domain"
)

const (
	MaxMessages      = 50
	MaxContentLength = 10000

	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 1.0
)

var supportedModels = map[string]struct{}{
	"gpt-3.5-turbo":       {},
	"gpt-4":               {},
	"gpt-4-turbo-preview": {},
	"gpt-4-turbo":         {},
	"gpt-4o":              {},
	"gpt-4o-mini":         {},
}

// Error reports a single violated constraint.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

// Validator applies the request rules with the deployment's token ceiling.
type Validator struct {
	maxTokens int
}

func New(maxTokens int) *Validator {
	return &Validator{maxTokens: maxTokens}
}

// Validate returns a copy of req with defaults applied and the model
// resolved, or a *Error naming the first violated field.
func (v *Validator) Validate(req domain.ChatRequest) (domain.ChatRequest, error) {
	if len(req.Messages) == 0 {
		return req, &Error{Field: "messages", Message: "must contain at least 1 message"}
	}
	if len(req.Messages) > MaxMessages {
		return req, &Error{Field: "messages", Message: fmt.Sprintf("must contain at most %d messages", MaxMessages)}
	}

	for i, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		default:
			return req, &Error{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: "must be one of user, assistant or system",
			}
		}

		length := utf8.RuneCountInString(msg.Content)
		if length < 1 {
			return req, &Error{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: "must not be empty",
			}
		}
		if length > MaxContentLength {
			return req, &Error{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: fmt.Sprintf("must be at most %d characters", MaxContentLength),
			}
		}
	}

	if req.MaxTokens == nil {
		defaultTokens := DefaultMaxTokens
		req.MaxTokens = &defaultTokens
	} else if *req.MaxTokens < 1 || *req.MaxTokens > v.maxTokens {
		return req, &Error{
			Field:   "max_tokens",
			Message: fmt.Sprintf("must be between 1 and %d", v.maxTokens),
		}
	}

	if req.Temperature == nil {
		defaultTemp := DefaultTemperature
		req.Temperature = &defaultTemp
	} else if *req.Temperature < 0 || *req.Temperature > 2 {
		return req, &Error{
			Field:   "temperature",
			Message: "must be between 0.0 and 2.0",
		}
	}

	req.Model = ResolveModel(req.Model)

	return req, nil
}

// ResolveModel normalizes the requested model against the supported set.
// Unknown or empty values fall back to the default model rather than being
// rejected.
func ResolveModel(model string) string {
	if _, ok := supportedModels[model]; ok {
		return model
	}
	return DefaultModel
}
