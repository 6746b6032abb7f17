// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/persistence/file"
	"github.com/n8njson/directory/pkg/persistence/memory"
	"github.com/n8njson/directory/pkg/persistence/postgresql"
)

const (
	providerFile     = "file"
	providerMemory   = "memory"
	providerPostgres = "postgres"
)

// NewPersistence opens the store named by the URL scheme: file://<dir>,
// memory:// or postgres(ql)://... A bare path is treated as a file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider, location := parsePersistenceProvider(databaseURL)

	logger.InfoContext(ctx, "Opening persistence", "provider", provider)

	switch provider {
	case providerPostgres:
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres persistence: %w", err)
		}

		return store, nil
	case providerMemory:
		return memory.NewPersistence(), nil
	case providerFile:
		if location == "" {
			return nil, fmt.Errorf("file persistence needs a directory: %q", databaseURL)
		}

		return file.NewPersistence(location), nil
	default:
		return nil, fmt.Errorf("unsupported persistence provider %q", provider)
	}
}

func parsePersistenceProvider(databaseURL string) (string, string) {
	scheme, rest, found := strings.Cut(databaseURL, "://")
	if !found {
		return providerFile, databaseURL
	}

	switch scheme {
	case "postgres", "postgresql":
		return providerPostgres, rest
	default:
		return scheme, rest
	}
}
