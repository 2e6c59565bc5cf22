package service

import (
	"context"

	"github.com/netcopilot/api/internal/model"
	"github.com/netcopilot/api/internal/store"
)

const defaultChatContextLimit = 20

// ChatResponder answers a message given contact records.
type ChatResponder interface {
	Reply(ctx context.Context, message string, records []model.PersonRecord) (string, error)
}

// ChatService answers questions about the most recently saved contacts.
type ChatService struct {
	people    store.PersonStore
	responder ChatResponder
}

func NewChatService(people store.PersonStore, responder ChatResponder) *ChatService {
	return &ChatService{people: people, responder: responder}
}

func (s *ChatService) Reply(ctx context.Context, req *model.ChatRequest) (string, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultChatContextLimit
	}
	records, err := s.people.List(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "I don't have any saved contacts yet. Capture a badge or card first and ask me again.", nil
	}
	return s.responder.Reply(ctx, req.Message, records)
}
