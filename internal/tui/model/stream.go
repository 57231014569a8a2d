package model

import (
	"context"
	"errors"
	"io"
)

// receiver is the client half of a server stream.
type receiver[T any] interface {
	Recv() (*T, error)
}

// pump hands every value from r to fn until the stream ends. A clean end
// of stream or a cancelled ctx returns nil.
func pump[T any](ctx context.Context, r receiver[T], fn func(*T)) error {
	for {
		v, err := r.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(v)
	}
}
