package pipeline

import (
	"log/slog"

	"dario.cat/mergo"
)

// Config configures a pipeline created with NewWithConfig.
type Config[T any] struct {
	// Name identifies the pipeline in log records. Default is "pipeline".
	Name string

	// Logger receives debug records about mutations and evaluations.
	// Default is slog.Default().
	Logger *slog.Logger

	// Middleware wraps every step on each evaluation. The first middleware
	// is the outermost.
	Middleware Mid[T]
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig[T any]() Config[T] {
	return Config[T]{
		Name:   "pipeline",
		Logger: slog.Default(),
	}
}

// withDefaults fills the zero fields of c from DefaultConfig.
func (c Config[T]) withDefaults() Config[T] {
	if err := mergo.Merge(&c, DefaultConfig[T]()); err != nil {
		// Merge only fails on mismatched kinds, which cannot happen for two
		// values of the same type.
		panic(err)
	}
	return c
}
