package agent

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/client"
	"github.com/netcopilot/api/internal/model"
)

const (
	analyzerPrompt = `You analyze LinkedIn profiles for networking. From the profile JSON, respond with JSON only:
{"profile_name": string, "headline": string, "current_title": string, "current_company": string, "location": string,
 "highlights": [exactly ten strings covering experience, skills, education, recent activity, awards and networking insights]}`

	summaryPrompt = `You write concise professional summaries. Using the profile and its analysis, respond with JSON only:
{"summary": "exactly two sentences", "key_highlights": [exactly three supporting facts referenced in the summary]}`

	icebreakerPrompt = `You write conversation starters for meeting this person. Using the profile, analysis and summary, respond with JSON only:
{"icebreakers": [3 to 5 items of {"category": one of "professional","educational","industry","interest","personal", "prompt": a natural question}]}`
)

// Crew runs the three enrichment tasks in order, feeding each task the
// outputs of the previous ones.
type Crew struct {
	llm      Completer
	model    string
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCrew(llm Completer, model string, logger *zap.Logger) *Crew {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crew{llm: llm, model: model, validate: NewValidator(), logger: logger}
}

// Enrich produces the analysis, summary and icebreakers for profile. Any
// task that fails or returns an invalid structure fails the whole run.
func (c *Crew) Enrich(ctx context.Context, profile model.Record) (*model.CrewOutputs, error) {
	profileJSON := indentJSON(profile)

	var analysis model.ProfileAnalysis
	if err := c.runTask(ctx, "profile_analysis", analyzerPrompt,
		"LinkedIn profile:\n"+profileJSON, &analysis); err != nil {
		return nil, err
	}

	var summary model.Summary
	if err := c.runTask(ctx, "summary", summaryPrompt,
		"LinkedIn profile:\n"+profileJSON+"\n\nAnalysis:\n"+indentJSON(analysis), &summary); err != nil {
		return nil, err
	}

	var icebreakers model.IcebreakerSet
	if err := c.runTask(ctx, "icebreakers", icebreakerPrompt,
		"LinkedIn profile:\n"+profileJSON+"\n\nAnalysis:\n"+indentJSON(analysis)+"\n\nSummary:\n"+indentJSON(summary), &icebreakers); err != nil {
		return nil, err
	}

	return &model.CrewOutputs{
		ProfileAnalysis: &analysis,
		Summary:         &summary,
		Icebreakers:     &icebreakers,
	}, nil
}

func (c *Crew) runTask(ctx context.Context, name, system, user string, out any) error {
	content, err := c.llm.Complete(ctx, client.Prompt{
		Model:       c.model,
		System:      system,
		User:        user,
		JSON:        true,
		Temperature: 0.4,
	})
	if err != nil {
		return apperr.Wrap(apperr.ErrEnrichment, "%s task failed: %v", name, err)
	}
	if err := decodeJSON(content, out); err != nil {
		return apperr.Wrap(apperr.ErrEnrichment, "%s task returned malformed output: %v", name, err)
	}
	trimOutput(out)
	if err := c.validate.Struct(out); err != nil {
		return apperr.Wrap(apperr.ErrEnrichment, "%s task output invalid: %v", name, err)
	}

	c.logger.Debug("enrichment task done", zap.String("task", name))
	return nil
}

func trimOutput(out any) {
	switch v := out.(type) {
	case *model.ProfileAnalysis:
		v.Highlights = trimAll(v.Highlights)
	case *model.Summary:
		v.Summary = strings.TrimSpace(v.Summary)
		v.KeyHighlights = trimAll(v.KeyHighlights)
	case *model.IcebreakerSet:
		for i := range v.Icebreakers {
			v.Icebreakers[i].Category = strings.ToLower(strings.TrimSpace(v.Icebreakers[i].Category))
			v.Icebreakers[i].Prompt = strings.TrimSpace(v.Icebreakers[i].Prompt)
		}
	}
}

func trimAll(items []string) []string {
	for i, s := range items {
		items[i] = strings.TrimSpace(s)
	}
	return items
}
