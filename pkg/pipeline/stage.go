// Package pipeline holds the stage abstraction and the value types passed
// between the encode stage and the orchestrator.
package pipeline

import "context"

// Stage is one step of a run. The orchestrator depends on this interface
// so tests can replace the encode stage.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a function to Stage.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}
