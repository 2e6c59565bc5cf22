package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/client"
	"github.com/netcopilot/api/internal/model"
)

// scriptedLLM returns replies in order and records every prompt.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []client.Prompt
}

func (s *scriptedLLM) Complete(_ context.Context, p client.Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

const (
	validAnalysis = `{"profile_name":"Grace Hopper","headline":"Rear Admiral","highlights":[" a ","b","c","d","e","f","g","h","i","j"]}`
	validSummary  = `{"summary":"Grace pioneered compilers. She served in the Navy.","key_highlights":["COBOL","Navy","Harvard Mark I"]}`
	validBreakers = "```json\n{\"icebreakers\":[{\"category\":\"Professional\",\"prompt\":\"How did COBOL start?\"},{\"category\":\"educational\",\"prompt\":\"Yale?\"},{\"category\":\"personal\",\"prompt\":\"Favorite bug?\"}]}\n```"
)

func TestSelectProfile(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{"selected_profile":{"name":"Ann Lee","url":"https://de.linkedin.com/in/ann"},"rationale":"Bay Area engineer"}`}}
	s := NewProfileSelector(llm, "gpt-4o-mini", nil)

	sel, err := s.SelectProfile(context.Background(), []model.Record{{"name": "Ann Lee"}, {"name": "Ann Leigh"}}, "Target full name: Ann Lee.")
	require.NoError(t, err)

	assert.Equal(t, "https://de.linkedin.com/in/ann", sel.Selected.String("url"))
	require.NotNil(t, sel.Rationale)
	assert.Equal(t, "Bay Area engineer", *sel.Rationale)
	assert.True(t, llm.prompts[0].JSON)
	assert.Contains(t, llm.prompts[0].User, "Ann Leigh")
}

func TestSelectProfile_Failures(t *testing.T) {
	cases := map[string]*scriptedLLM{
		"malformed":     {replies: []string{"I pick the first one"}},
		"no selection":  {replies: []string{`{"rationale":"none fit"}`}},
		"llm error":     {err: errors.New("boom")},
		"empty profile": {replies: []string{`{"selected_profile":{}}`}},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewProfileSelector(llm, "m", nil).SelectProfile(context.Background(), []model.Record{{"name": "x"}}, "c")
			assert.ErrorIs(t, err, apperr.ErrSelection)
		})
	}

	_, err := NewProfileSelector(&scriptedLLM{}, "m", nil).SelectProfile(context.Background(), nil, "c")
	assert.ErrorIs(t, err, apperr.ErrSelection)
}

func TestCrewEnrich(t *testing.T) {
	llm := &scriptedLLM{replies: []string{validAnalysis, validSummary, validBreakers}}
	out, err := NewCrew(llm, "m", nil).Enrich(context.Background(), model.Record{"name": "Grace Hopper"})
	require.NoError(t, err)

	assert.Equal(t, "a", out.ProfileAnalysis.Highlights[0])
	assert.Len(t, out.Summary.KeyHighlights, 3)
	require.Len(t, out.Icebreakers.Icebreakers, 3)
	assert.Equal(t, "professional", out.Icebreakers.Icebreakers[0].Category)

	require.Len(t, llm.prompts, 3)
	assert.Contains(t, llm.prompts[1].User, "Rear Admiral", "summary sees the analysis")
	assert.Contains(t, llm.prompts[2].User, "She served in the Navy", "icebreakers see the summary")
}

func TestCrewEnrich_InvalidOutputs(t *testing.T) {
	cases := map[string][]string{
		"nine highlights": {`{"highlights":["a","b","c","d","e","f","g","h","i"]}`},
		"three sentences": {validAnalysis, `{"summary":"One. Two. Three.","key_highlights":["a","b","c"]}`},
		"bad category":    {validAnalysis, validSummary, `{"icebreakers":[{"category":"weather","prompt":"a"},{"category":"personal","prompt":"b"},{"category":"personal","prompt":"c"}]}`},
		"too few":         {validAnalysis, validSummary, `{"icebreakers":[{"category":"personal","prompt":"b"}]}`},
		"not json":        {"sure!"},
	}
	for name, replies := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCrew(&scriptedLLM{replies: replies}, "m", nil).Enrich(context.Background(), model.Record{})
			assert.ErrorIs(t, err, apperr.ErrEnrichment)
		})
	}
}

func TestExtract(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"# Grace Hopper\nUS Navy\nlinkedin.com/in/grace",
		`{"basic_info":{"names":"Grace Hopper","company":"US Navy"},"links":{"linkedin":"linkedin.com/in/grace"}}`,
	}}
	png := []byte("\x89PNG\r\n\x1a\n0000")

	extracted, markdown, err := NewExtractor(llm, "vision", "text", nil).Extract(context.Background(), png, "badge.png")
	require.NoError(t, err)

	assert.Equal(t, "Grace Hopper", extracted.BasicInfo.Names)
	assert.Equal(t, "US Navy", extracted.BasicInfo.Company)
	assert.Equal(t, "linkedin.com/in/grace", extracted.Links.LinkedIn)
	assert.Equal(t, "badge.png", extracted.Image)
	assert.True(t, strings.HasPrefix(markdown, "# Grace Hopper"))

	require.Len(t, llm.prompts, 2)
	assert.Equal(t, "vision", llm.prompts[0].Model)
	require.Len(t, llm.prompts[0].Images, 1)
	assert.Equal(t, "image/png", llm.prompts[0].Images[0].MIMEType)
	assert.Contains(t, llm.prompts[1].User, "US Navy")
}

func TestExtract_Failures(t *testing.T) {
	_, _, err := NewExtractor(&scriptedLLM{}, "v", "t", nil).Extract(context.Background(), nil, "x.png")
	assert.ErrorIs(t, err, apperr.ErrExtraction)

	_, _, err = NewExtractor(&scriptedLLM{replies: []string{"   "}}, "v", "t", nil).Extract(context.Background(), []byte("img"), "x.png")
	assert.ErrorIs(t, err, apperr.ErrExtraction)

	_, _, err = NewExtractor(&scriptedLLM{replies: []string{"text", "not json"}}, "v", "t", nil).Extract(context.Background(), []byte("img"), "x.png")
	assert.ErrorIs(t, err, apperr.ErrExtraction)
}

func sampleRecord() model.PersonRecord {
	return model.PersonRecord{
		LookupResult: model.LookupResult{
			Person: model.Person{Name: "Grace Hopper", Location: "Arlington, VA"},
			CrewOutputs: model.CrewOutputs{
				ProfileAnalysis: &model.ProfileAnalysis{Headline: "Rear Admiral", Highlights: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}},
				Summary:         &model.Summary{Summary: "Pioneer. Admiral.", KeyHighlights: []string{"COBOL", "Navy", "Mark I"}},
				Icebreakers: &model.IcebreakerSet{Icebreakers: []model.Icebreaker{
					{Category: "professional", Prompt: "p1"}, {Category: "personal", Prompt: "p2"},
					{Category: "industry", Prompt: "p3"}, {Category: "interest", Prompt: "p4"},
				}},
			},
		},
		Extracted: model.Extracted{Links: model.Links{Email: "grace@navy.mil", GitHub: "gh"}},
	}
}

func TestFormatPersonSummary(t *testing.T) {
	rec := sampleRecord()
	want := "Grace Hopper - Rear Admiral\nPioneer. Admiral.\nKey highlights:\n- COBOL\n- Navy\n- Mark I"
	assert.Equal(t, want, FormatPersonSummary(&rec))

	assert.Equal(t, "This contact", FormatPersonSummary(&model.PersonRecord{}))
}

func TestContactContext(t *testing.T) {
	ctx := ContactContext([]model.PersonRecord{sampleRecord()})

	assert.Contains(t, ctx, "Name: Grace Hopper")
	assert.Contains(t, ctx, "Headline: Rear Admiral")
	assert.Contains(t, ctx, "Location: Arlington, VA")
	assert.Contains(t, ctx, "- industry: p3")
	assert.NotContains(t, ctx, "p4")
	assert.Contains(t, ctx, "Contact: email: grace@navy.mil")
	assert.NotContains(t, ctx, "github")
}

func TestChatReply(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"Grace works on compilers."}}
	reply, err := NewChatAgent(llm, "chat").Reply(context.Background(), "who knows COBOL?", []model.PersonRecord{sampleRecord()})
	require.NoError(t, err)

	assert.Equal(t, "Grace works on compilers.", reply)
	assert.Equal(t, "chat", llm.prompts[0].Model)
	assert.Contains(t, llm.prompts[0].User, "User message: who knows COBOL?")
}
