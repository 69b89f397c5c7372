package api

import (
	"context"

	"github.com/soaringjerry/Empatia/internal/services"
)

// Store is everything the HTTP layer needs from a backend.
type Store interface {
	services.ResponseStore
	services.CatalogStore
	services.BoardStore
	ImportRecords(ctx context.Context, rs []services.ResponseRecord) (int, error)
}

// Pinger is implemented by stores with a remote connection to check.
type Pinger interface {
	Ping(ctx context.Context) error
}

var _ Store = (*MemoryStore)(nil)
