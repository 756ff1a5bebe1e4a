// Package publish writes cycle artifacts to their destinations.
package publish

import (
	"context"
	"fmt"
)

type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

type Publisher interface {
	// Publish writes artifacts in order. Earlier artifacts are complete before later
	// ones are written, so a page never links to a chart that is not there yet.
	Publish(ctx context.Context, artifacts []Artifact) error
}

type chain []Publisher

// Chain publishes to each publisher in turn and stops at the first failure.
func Chain(publishers ...Publisher) Publisher {
	return chain(publishers)
}

func (c chain) Publish(ctx context.Context, artifacts []Artifact) error {
	for i, p := range c {
		if err := p.Publish(ctx, artifacts); err != nil {
			return fmt.Errorf("publisher %d: %w", i, err)
		}
	}
	return nil
}

type discard struct{}

// Discard drops every artifact. It backs dry runs.
var Discard Publisher = discard{}

func (discard) Publish(ctx context.Context, _ []Artifact) error {
	return ctx.Err()
}
