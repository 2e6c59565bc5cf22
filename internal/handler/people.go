package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/netcopilot/api/internal/model"
	"github.com/netcopilot/api/internal/store"
	"github.com/netcopilot/api/pkg/response"
)

// ChatReplier answers questions about stored contacts.
type ChatReplier interface {
	Reply(ctx context.Context, req *model.ChatRequest) (string, error)
}

type PeopleHandler struct {
	people    store.PersonStore
	chat      ChatReplier
	validator *validator.Validate
}

func NewPeopleHandler(people store.PersonStore, chat ChatReplier, v *validator.Validate) *PeopleHandler {
	return &PeopleHandler{
		people:    people,
		chat:      chat,
		validator: v,
	}
}

// List handles GET /api/people?limit=N
func (h *PeopleHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", store.DefaultListLimit)
	if limit < 1 || limit > 500 {
		return response.ValidationError(c, "limit must be between 1 and 500", nil)
	}

	people, err := h.people.List(c.UserContext(), limit)
	if err != nil {
		return response.FromError(c, err)
	}
	if people == nil {
		people = []model.PersonRecord{}
	}

	return response.OK(c, model.PeopleListResponse{People: people})
}

// Get handles GET /api/people/:id
func (h *PeopleHandler) Get(c *fiber.Ctx) error {
	opt, err := h.people.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}

	rec, ok := opt.Get()
	if !ok {
		return response.NotFound(c, "Person not found")
	}

	return response.OK(c, rec)
}

// Chat handles POST /api/chat
func (h *PeopleHandler) Chat(c *fiber.Ctx) error {
	var req model.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	reply, err := h.chat.Reply(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.OK(c, model.ChatResponse{Reply: reply})
}
