package store

import (
	"context"
	"fmt"

	"finmodeling/pkg/core/applog"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend     string
	Dir         string
	DatabaseURL string
	S3          S3Config
}

// Open builds the configured backend. The returned close function releases
// any pool it opened and is never nil.
func Open(ctx context.Context, opts Options) (Cache, func(), error) {
	noop := func() {}

	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryCache(), noop, nil
	case BackendFile:
		return NewClassificationCache(nil, opts.Dir), noop, nil
	case BackendPostgres:
		if err := InitDB(ctx, opts.DatabaseURL); err != nil {
			return nil, noop, err
		}
		if err := EnsureSchema(ctx, GetPool()); err != nil {
			Close()
			return nil, noop, err
		}
		applog.L().Info().Str("dir", opts.Dir).Msg("[store] using postgres classification cache")
		return NewClassificationCache(GetPool(), opts.Dir), Close, nil
	case BackendS3:
		client, err := NewS3Client(ctx, opts.S3)
		if err != nil {
			return nil, noop, err
		}
		return NewS3Cache(client, opts.S3), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown cache backend %q", opts.Backend)
}
