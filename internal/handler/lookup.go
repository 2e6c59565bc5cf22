package handler

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/netcopilot/api/internal/model"
	"github.com/netcopilot/api/pkg/response"
)

// Lookup is the synchronous search and enrichment surface.
type Lookup interface {
	SearchAndEnrich(ctx context.Context, req *model.SearchRequest) (*model.LookupResult, error)
	SearchProfile(ctx context.Context, req *model.SearchRequest) (*model.Selection, error)
	FetchProfile(ctx context.Context, rawURL string) (*model.Snapshot, error)
	RunCrew(ctx context.Context, data json.RawMessage) (*model.CrewOutputs, error)
}

type LookupHandler struct {
	service   Lookup
	validator *validator.Validate
}

func NewLookupHandler(svc Lookup, v *validator.Validate) *LookupHandler {
	return &LookupHandler{
		service:   svc,
		validator: v,
	}
}

// Search handles POST /api/search
func (h *LookupHandler) Search(c *fiber.Ctx) error {
	var req model.SearchRequest
	if ok, err := h.bindSearch(c, &req); !ok {
		return err
	}

	selection, err := h.service.SearchProfile(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.OK(c, model.SearchResponse{
		SelectedProfile:   selection.Selected,
		SelectorRationale: selection.Rationale,
	})
}

// Lookup handles POST /api/lookup
func (h *LookupHandler) Lookup(c *fiber.Ctx) error {
	var req model.SearchRequest
	if ok, err := h.bindSearch(c, &req); !ok {
		return err
	}

	result, err := h.service.SearchAndEnrich(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.OK(c, result)
}

// Profile handles POST /api/profile
func (h *LookupHandler) Profile(c *fiber.Ctx) error {
	var req model.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	snapshot, err := h.service.FetchProfile(c.UserContext(), req.URL)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.OK(c, snapshot)
}

// RunCrew handles POST /api/crew/run
func (h *LookupHandler) RunCrew(c *fiber.Ctx) error {
	var req model.CrewRunRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	outputs, err := h.service.RunCrew(c.UserContext(), req.LinkedInData)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.OK(c, outputs)
}

// bindSearch parses and validates a search body. When ok is false the
// validation response has already been written.
func (h *LookupHandler) bindSearch(c *fiber.Ctx, req *model.SearchRequest) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return false, response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}
	return true, nil
}
