package main

import (
	"context"
	"fmt"
	"io"

	"github.com/netcopilot/api/internal/model"
	"github.com/netcopilot/api/internal/service"
)

func progressPrinter(w io.Writer) service.ProgressObserver {
	return service.ProgressFunc(func(_ context.Context, e model.ProgressEvent) {
		fmt.Fprintf(w, "[%3d%%] %s\n", e.Percent, e.Label)
	})
}
