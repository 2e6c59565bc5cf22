package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/client"
	"github.com/netcopilot/api/internal/model"
)

const selectorSystemPrompt = `You are a LinkedIn research specialist. Given candidate profiles from a people search and the search criteria, choose the single candidate that best matches.
Respond with JSON only: {"selected_profile": <the chosen candidate object copied exactly>, "rationale": "<one or two sentences>"}.`

// ProfileSelector ranks search candidates with a language model.
type ProfileSelector struct {
	llm    Completer
	model  string
	logger *zap.Logger
}

func NewProfileSelector(llm Completer, model string, logger *zap.Logger) *ProfileSelector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileSelector{llm: llm, model: model, logger: logger}
}

type selectionReply struct {
	SelectedProfile map[string]any `json:"selected_profile"`
	Rationale       *string        `json:"rationale"`
}

// SelectProfile picks exactly one of candidates. An empty or malformed
// reply is a selection error; it is never retried.
func (s *ProfileSelector) SelectProfile(ctx context.Context, candidates []model.Record, criteria string) (*model.Selection, error) {
	if len(candidates) == 0 {
		return nil, apperr.Wrap(apperr.ErrSelection, "no candidate profiles provided for selection")
	}

	content, err := s.llm.Complete(ctx, client.Prompt{
		Model:  s.model,
		System: selectorSystemPrompt,
		User:   "Search criteria:\n" + criteria + "\n\nCandidate profiles:\n" + indentJSON(candidates),
		JSON:   true,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrSelection, "profile selector call failed: %v", err)
	}

	var reply selectionReply
	if err := decodeJSON(content, &reply); err != nil {
		return nil, apperr.Wrap(apperr.ErrSelection, "profile selector returned malformed output: %v", err)
	}
	if len(reply.SelectedProfile) == 0 {
		return nil, apperr.Wrap(apperr.ErrSelection, "profile selector did not provide a selected_profile")
	}

	if reply.Rationale != nil && strings.TrimSpace(*reply.Rationale) == "" {
		reply.Rationale = nil
	}

	s.logger.Info("profile selected",
		zap.Int("candidates", len(candidates)),
		zap.String("url", model.Record(reply.SelectedProfile).String("url")))

	return &model.Selection{
		Selected:  model.Record(reply.SelectedProfile),
		Rationale: reply.Rationale,
	}, nil
}
