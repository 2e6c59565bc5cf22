// Package store persists capture results. Records are append-only: they
// receive an id and creation time on Save and are never updated.
package store

import (
	"context"

	"github.com/samber/mo"

	"github.com/netcopilot/api/internal/model"
)

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 50

// PersonStore is implemented by every record backend.
type PersonStore interface {
	// Save assigns a fresh id and creation time and persists rec.
	Save(ctx context.Context, rec *model.PersonRecord) (*model.PersonRecord, error)
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]model.PersonRecord, error)
	Get(ctx context.Context, id string) (mo.Option[*model.PersonRecord], error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
