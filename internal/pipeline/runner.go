package pipeline

import (
	"context"
	"fmt"
)

// Run threads the stages left to right: the output of stage i becomes the
// input of stage i+1. The first error aborts the whole chain; callers never
// see partial results, which is what keeps one misbehaving source from
// poisoning the rest of a session.
func Run(ctx context.Context, stages []Stage, initial []Item) ([]Item, error) {
	items := initial
	if items == nil {
		items = []Item{}
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := stage.Apply(ctx, items)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		items = out
	}

	return items, nil
}
