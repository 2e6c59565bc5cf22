package service

import (
	"context"

	"github.com/netcopilot/api/internal/model"
)

// ProgressObserver receives capture pipeline checkpoints.
type ProgressObserver interface {
	OnProgress(ctx context.Context, event model.ProgressEvent)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(ctx context.Context, event model.ProgressEvent)

func (f ProgressFunc) OnProgress(ctx context.Context, event model.ProgressEvent) {
	f(ctx, event)
}

// MultiObserver fans each event out to every observer in order.
type MultiObserver []ProgressObserver

func (m MultiObserver) OnProgress(ctx context.Context, event model.ProgressEvent) {
	for _, o := range m {
		if o != nil {
			o.OnProgress(ctx, event)
		}
	}
}

// progressReporter forwards events to an optional observer and never lets
// the reported percentage go down.
type progressReporter struct {
	observer ProgressObserver
	last     int
}

func newProgressReporter(observer ProgressObserver) *progressReporter {
	return &progressReporter{observer: observer}
}

func (r *progressReporter) report(ctx context.Context, percent int, label string) {
	if percent < r.last {
		percent = r.last
	}
	if percent > 100 {
		percent = 100
	}
	r.last = percent
	if r.observer != nil {
		r.observer.OnProgress(ctx, model.ProgressEvent{Percent: percent, Label: label})
	}
}
