// Package agent holds the language-model collaborators: candidate
// selection, profile enrichment, badge extraction and contact chat.
// Each one builds prompts, calls a Completer and validates the reply.
package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/netcopilot/api/internal/client"
)

// Completer runs one chat completion. *client.LLMClient implements it.
type Completer interface {
	Complete(ctx context.Context, p client.Prompt) (string, error)
}

var _ Completer = (*client.LLMClient)(nil)

// NewValidator returns a validator that also understands the
// two_sentences tag used by summary outputs.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("two_sentences", func(fl validator.FieldLevel) bool {
		return countSentences(fl.Field().String()) == 2
	})
	return v
}

func countSentences(s string) int {
	n := 0
	for _, part := range strings.Split(s, ".") {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

// decodeJSON unmarshals a model reply, tolerating a fenced code block.
func decodeJSON(content string, out any) error {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return json.Unmarshal([]byte(content), out)
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
