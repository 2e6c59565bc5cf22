package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/netcopilot/api/internal/client"
	"github.com/netcopilot/api/internal/model"
)

const chatSystemPrompt = "You are a helpful networking assistant. Use only the provided contact information to answer. " +
	"Be concise, friendly, and mention specific details when relevant."

// ChatAgent answers questions about saved contacts.
type ChatAgent struct {
	llm   Completer
	model string
}

func NewChatAgent(llm Completer, model string) *ChatAgent {
	return &ChatAgent{llm: llm, model: model}
}

// Reply answers message using only records as context.
func (a *ChatAgent) Reply(ctx context.Context, message string, records []model.PersonRecord) (string, error) {
	return a.llm.Complete(ctx, client.Prompt{
		Model:       a.model,
		System:      chatSystemPrompt,
		User:        "Context about contacts:\n" + ContactContext(records) + "\n\nUser message: " + message,
		Temperature: 0.6,
	})
}

// ContactContext renders records as the plain-text context block given to
// the chat model.
func ContactContext(records []model.PersonRecord) string {
	snippets := make([]string, 0, len(records))
	for _, rec := range records {
		lines := []string{"Name: " + orDefault(rec.Person.Name, "Unknown")}

		if headline := headlineOf(rec); headline != "" {
			if rec.Person.Subtitle != "" {
				lines = append(lines, "Subtitle: "+headline)
			} else {
				lines = append(lines, "Headline: "+headline)
			}
		}
		if rec.Person.Location != "" {
			lines = append(lines, "Location: "+rec.Person.Location)
		}
		if s := rec.CrewOutputs.Summary; s != nil && s.Summary != "" {
			lines = append(lines, "Summary: "+s.Summary)
		}
		if hl := highlightsOf(rec, 5); len(hl) > 0 {
			lines = append(lines, "Highlights:")
			for _, h := range hl {
				lines = append(lines, "- "+h)
			}
		}
		if ib := rec.CrewOutputs.Icebreakers; ib != nil && len(ib.Icebreakers) > 0 {
			lines = append(lines, "Icebreakers:")
			for i, item := range ib.Icebreakers {
				if i == 3 {
					break
				}
				lines = append(lines, fmt.Sprintf("- %s: %s", item.Category, item.Prompt))
			}
		}

		var contact []string
		links := rec.Extracted.Links
		for _, kv := range [][2]string{{"linkedin", links.LinkedIn}, {"email", links.Email}, {"phone", links.Phone}} {
			if kv[1] != "" {
				contact = append(contact, kv[0]+": "+kv[1])
			}
		}
		if len(contact) > 0 {
			lines = append(lines, "Contact: "+strings.Join(contact, ", "))
		}

		snippets = append(snippets, strings.Join(lines, "\n"))
	}
	return strings.Join(snippets, "\n\n")
}

// FormatPersonSummary renders a short header, summary and top three
// highlights for rec.
func FormatPersonSummary(rec *model.PersonRecord) string {
	header := orDefault(rec.Person.Name, "This contact")
	if headline := headlineOf(*rec); headline != "" {
		header += " - " + headline
	}
	lines := []string{header}

	if s := rec.CrewOutputs.Summary; s != nil && s.Summary != "" {
		lines = append(lines, s.Summary)
	}
	if hl := highlightsOf(*rec, 3); len(hl) > 0 {
		lines = append(lines, "Key highlights:")
		for _, h := range hl {
			lines = append(lines, "- "+h)
		}
	}
	return strings.Join(lines, "\n")
}

func headlineOf(rec model.PersonRecord) string {
	if rec.Person.Subtitle != "" {
		return rec.Person.Subtitle
	}
	if a := rec.CrewOutputs.ProfileAnalysis; a != nil {
		return a.Headline
	}
	return ""
}

// highlightsOf prefers the summary's key highlights over the analysis.
func highlightsOf(rec model.PersonRecord, limit int) []string {
	var hl []string
	if s := rec.CrewOutputs.Summary; s != nil && len(s.KeyHighlights) > 0 {
		hl = s.KeyHighlights
	} else if a := rec.CrewOutputs.ProfileAnalysis; a != nil {
		hl = a.Highlights
	}
	if len(hl) > limit {
		hl = hl[:limit]
	}
	return hl
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
