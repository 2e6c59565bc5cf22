package agent

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/client"
	"github.com/netcopilot/api/internal/model"
)

const (
	transcribePrompt = `Transcribe every piece of text visible in this image (badge, business card or slide) as Markdown. Keep names, titles, companies, URLs, handles, emails and phone numbers exactly as written.`

	extractionTemplate = `Extract the following information from this content and return as JSON:
- basic_info: names, company
- links: linkedin, github, website, email, phone
- image: path to the image file

Content: %s

Return only valid JSON format:
{
  "basic_info": {"names": "extracted names", "company": "extracted company"},
  "links": {"linkedin": "linkedin url if found", "github": "github url if found", "website": "website url if found", "email": "email if found", "phone": "phone if found"},
  "image": %q
}`
)

// Extractor turns a photographed badge or card into structured contact
// fields. It transcribes the image to Markdown with a vision model and
// then extracts fields from the Markdown.
type Extractor struct {
	llm         Completer
	visionModel string
	model       string
	logger      *zap.Logger
}

func NewExtractor(llm Completer, visionModel, model string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{llm: llm, visionModel: visionModel, model: model, logger: logger}
}

// Extract returns the structured fields and the intermediate Markdown.
func (e *Extractor) Extract(ctx context.Context, image []byte, filename string) (*model.Extracted, string, error) {
	if len(image) == 0 {
		return nil, "", apperr.Wrap(apperr.ErrExtraction, "image is empty")
	}

	markdown, err := e.llm.Complete(ctx, client.Prompt{
		Model:  e.visionModel,
		User:   transcribePrompt,
		Images: []client.Image{{MIMEType: http.DetectContentType(image), Data: image}},
	})
	if err != nil {
		return nil, "", apperr.Wrap(apperr.ErrExtraction, "image transcription failed: %v", err)
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil, "", apperr.Wrap(apperr.ErrExtraction, "image transcription returned no content")
	}

	content, err := e.llm.Complete(ctx, client.Prompt{
		Model:  e.model,
		System: "You are an extraction assistant. Respond with valid JSON only.",
		User:   fmt.Sprintf(extractionTemplate, markdown, filename),
		JSON:   true,
	})
	if err != nil {
		return nil, markdown, apperr.Wrap(apperr.ErrExtraction, "field extraction failed: %v", err)
	}

	var extracted model.Extracted
	if err := decodeJSON(content, &extracted); err != nil {
		return nil, markdown, apperr.Wrap(apperr.ErrExtraction, "extraction response was not valid JSON: %v", err)
	}
	if extracted.Image == "" {
		extracted.Image = filename
	}

	e.logger.Debug("image extracted", zap.String("filename", filename), zap.Int("markdown_len", len(markdown)))
	return &extracted, markdown, nil
}
