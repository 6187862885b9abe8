package config

import "context"

// Loader is the interface for a format-specific model loader.
type Loader interface {
	// Load reads the model files at paths and merges them into a single,
	// format-agnostic Model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
