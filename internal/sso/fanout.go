package sso

import (
	"context"
)

// FanOutResult carries one connection's outcome of a fan-out operation.
// Exactly one of Value/Err is meaningful, discriminated by Err.
type FanOutResult[T any] struct {
	Conn  *Connection
	Value T
	Err   error
}

// FanOut runs op against every connection in order, sequentially. Failures
// are isolated per connection: an error is recorded in that connection's
// result and the loop continues, never short-circuiting. The returned
// slice has one result per input connection, in input order.
func FanOut[T any](ctx context.Context, conns []*Connection, op func(ctx context.Context, client *Client) (T, error)) []FanOutResult[T] {
	results := make([]FanOutResult[T], 0, len(conns))
	for _, conn := range conns {
		value, err := op(ctx, conn.Client())
		results = append(results, FanOutResult[T]{
			Conn:  conn,
			Value: value,
			Err:   err,
		})
	}
	return results
}
