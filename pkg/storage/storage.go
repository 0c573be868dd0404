// Package storage defines the contract remote object store providers
// implement.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Delete when the key does not exist.
var ErrObjectNotFound = errors.New("storage object not found")

// Object describes the bytes handed to a provider.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Provider is a remote object store addressed by key.
type Provider interface {
	Put(ctx context.Context, obj Object) (url string, err error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Name() string
}
