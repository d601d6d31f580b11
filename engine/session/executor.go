package session

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/farsdash/farsdash/engine/page"
	"github.com/farsdash/farsdash/pkg/fn"
)

// Executor runs page commands against the backend, one span per command.
type Executor struct {
	backend page.Backend
}

// NewExecutor creates an executor over b.
func NewExecutor(b page.Backend) *Executor {
	return &Executor{backend: b}
}

// Run performs cmd and returns its completion event. Failed fetches mark the
// span as errored but still come back as events.
func (x *Executor) Run(ctx context.Context, sessionID string, cmd page.Command) page.Event {
	var ev page.Event
	stage := fn.TracedStage("farsdash.fetch."+cmd.Name(),
		func(ctx context.Context, c page.Command) fn.Result[page.Event] {
			ev = c.Run(ctx, x.backend)
			if err := page.Failure(ev); err != nil {
				return fn.Err[page.Event](err)
			}
			return fn.Ok(ev)
		},
		attribute.String("farsdash.session", sessionID),
		attribute.String("farsdash.command", cmd.Name()),
	)
	stage(ctx, cmd)
	return ev
}
