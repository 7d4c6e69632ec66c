package client

import (
	"context"

	"github.com/roach88/sparqlc/internal/ir"
)

// Outcome is the eventual result of one asynchronous operation: a value or
// an error.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Get returns the value and error.
func (o Outcome[T]) Get() (T, error) {
	return o.Value, o.Err
}

// Async runs fn in a new goroutine. The returned channel is buffered,
// receives exactly one Outcome and is then closed, so the goroutine never
// blocks even if nobody receives.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Outcome[T] {
	ch := make(chan Outcome[T], 1)
	go func() {
		defer close(ch)
		v, err := fn(ctx)
		ch <- Outcome[T]{Value: v, Err: err}
	}()
	return ch
}

// QueryAsync runs Query in the background.
func (c *Client) QueryAsync(ctx context.Context, text string) <-chan Outcome[*ir.ResultSet] {
	return Async(ctx, func(ctx context.Context) (*ir.ResultSet, error) {
		return c.Query(ctx, text)
	})
}
