// Package sink stores retrieved documents in the configured destination.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cuongbtq/pdf-retriever/internal/config"
)

// ErrInvalidDestination is returned for a destination other than local or objectstore
var ErrInvalidDestination = errors.New("invalid storage destination")

// Sink writes a document under a name and returns the URI it was stored at.
type Sink interface {
	// Destination is the configured destination kind, "local" or "objectstore".
	Destination() string
	// Location identifies the folder or bucket documents are written to.
	Location() string
	// Put stores size bytes read from r under name. size may be -1 when unknown.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Close() error
}

// New builds the sink selected by cfg.Worker.Destination and prepares its
// folder or bucket. Any error here is a configuration problem and is fatal.
func New(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.Worker.Destination {
	case config.DestinationLocal:
		return NewLocal(cfg.Storage.Local.Path)
	case config.DestinationObjectStore:
		store := cfg.Storage.ObjectStore
		switch store.Driver {
		case config.ObjectStoreMinio, "":
			return NewMinio(ctx, store)
		case config.ObjectStoreGCS:
			return NewGCS(ctx, store)
		default:
			return nil, fmt.Errorf("%w: unknown object store driver %q", ErrInvalidDestination, store.Driver)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDestination, cfg.Worker.Destination)
	}
}
