// Package pipeline provides the stage plumbing shared by the preview stages.
package pipeline

import (
	"context"
	"fmt"
)

// Stage turns one preview input into the next step's input.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a function to Stage.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute implements Stage.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// Named wraps stage so that its errors carry the stage name. The stage is not
// run once ctx is done; a viewer that disconnects mid-render stops there.
func Named[In, Out any](name string, stage Stage[In, Out]) Stage[In, Out] {
	return StageFunc[In, Out](func(ctx context.Context, input In) (Out, error) {
		var zero Out
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s: %w", name, err)
		}
		out, err := stage.Execute(ctx, input)
		if err != nil {
			return zero, fmt.Errorf("%s: %w", name, err)
		}
		return out, nil
	})
}
