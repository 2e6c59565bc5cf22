package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/model"
	"github.com/netcopilot/api/internal/store"
)

// Capture pipeline checkpoints.
const (
	ProgressExtracting = 5
	ProgressSearching  = 45
	ProgressSaving     = 90
	ProgressCompleted  = 100
)

// Extractor turns an image into structured contact fields plus the
// intermediate Markdown transcription.
type Extractor interface {
	Extract(ctx context.Context, image []byte, filename string) (*model.Extracted, string, error)
}

// Enrichment is the cached search, fetch and enrich flow.
type Enrichment interface {
	SearchAndEnrich(ctx context.Context, req *model.SearchRequest) (*model.LookupResult, error)
}

// ImageArchive stores the original capture image and returns its URL.
type ImageArchive interface {
	ArchiveCapture(ctx context.Context, filename string, image []byte) (string, error)
}

// CaptureService runs the image to saved profile pipeline. Stages run
// strictly in order; a failing stage aborts the run before anything is
// persisted.
type CaptureService struct {
	extractor  Extractor
	enrichment Enrichment
	people     store.PersonStore
	archive    ImageArchive
	logger     *zap.Logger
}

func NewCaptureService(extractor Extractor, enrichment Enrichment, people store.PersonStore, logger *zap.Logger) *CaptureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaptureService{
		extractor:  extractor,
		enrichment: enrichment,
		people:     people,
		logger:     logger,
	}
}

// WithImageArchive enables archiving of capture images before the record
// is saved. Archive failures are logged and ignored.
func (s *CaptureService) WithImageArchive(archive ImageArchive) *CaptureService {
	s.archive = archive
	return s
}

// ProcessCapture extracts a name from image, enriches it and saves the
// combined record. observer may be nil.
func (s *CaptureService) ProcessCapture(ctx context.Context, image []byte, filename string, observer ProgressObserver) (*model.PersonRecord, error) {
	progress := newProgressReporter(observer)
	log := s.logger.With(zap.String("filename", filename))

	progress.report(ctx, ProgressExtracting, "Processing image")
	extracted, markdown, err := s.extractor.Extract(ctx, image, filename)
	if err != nil {
		return nil, err
	}

	firstName, lastName, err := SplitName(extracted.BasicInfo.Names)
	if err != nil {
		return nil, err
	}
	log.Info("capture names extracted", zap.String("first_name", firstName), zap.String("last_name", lastName))

	progress.report(ctx, ProgressSearching, "Searching LinkedIn")
	lookup, err := s.enrichment.SearchAndEnrich(ctx, &model.SearchRequest{
		FirstName:         firstName,
		LastName:          lastName,
		AdditionalContext: BuildHints(extracted),
	})
	if err != nil {
		return nil, err
	}

	progress.report(ctx, ProgressSaving, "Saving profile")
	record := &model.PersonRecord{
		LookupResult: *lookup,
		Filename:     filename,
		Markdown:     markdown,
		Extracted:    *extracted,
	}
	if s.archive != nil {
		if imageURL, err := s.archive.ArchiveCapture(ctx, filename, image); err != nil {
			log.Warn("capture image archive failed", zap.Error(err))
		} else {
			record.ImageURL = imageURL
		}
	}

	saved, err := s.people.Save(ctx, record)
	if err != nil {
		return nil, err
	}

	progress.report(ctx, ProgressCompleted, "Completed")
	log.Info("capture saved", zap.String("person_id", saved.ID))
	return saved, nil
}

// SplitName splits an extracted name into first and last name. A single
// token fills both slots so a search never runs with an empty last name.
func SplitName(names string) (string, string, error) {
	parts := strings.Fields(names)
	switch len(parts) {
	case 0:
		return "", "", apperr.Wrap(apperr.ErrExtraction, "unable to extract names from the image")
	case 1:
		return parts[0], parts[0], nil
	default:
		return parts[0], strings.Join(parts[1:], " "), nil
	}
}

// BuildHints joins the present profile links and company into the free
// text hint passed to ranking. Absent fields are omitted.
func BuildHints(extracted *model.Extracted) string {
	var parts []string
	for _, kv := range [][2]string{
		{"linkedin", extracted.Links.LinkedIn},
		{"website", extracted.Links.Website},
		{"github", extracted.Links.GitHub},
	} {
		if v := strings.TrimSpace(kv[1]); v != "" {
			parts = append(parts, kv[0]+": "+v)
		}
	}
	if company := strings.TrimSpace(extracted.BasicInfo.Company); company != "" {
		parts = append(parts, "company: "+company)
	}
	return strings.Join(parts, ", ")
}
