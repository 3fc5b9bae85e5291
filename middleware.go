package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// StepUUIDKey is the context key for storing step UUIDs.
const StepUUIDKey contextKey = "step_uuid"

// ErrStepPanic is wrapped by the error RecoverMiddleware returns for a
// panicking step.
var ErrStepPanic = errors.New("step panicked")

// UUIDMiddleware returns a middleware exposing the step ID as a string under
// StepUUIDKey, for code that reads plain context values. Outside a pipeline
// evaluation a fresh UUID is used.
func UUIDMiddleware[T any]() Middleware[T] {
	return func(next Step[T]) Step[T] {
		return &MidFunc[T]{
			Name: "UUID",
			Next: next,
			Fn: func(ctx context.Context, v T) (T, error) {
				id, err := GetStepID(ctx)
				if err != nil {
					id = uuid.New()
				}
				return next.Run(context.WithValue(ctx, StepUUIDKey, id.String()), v)
			},
		}
	}
}

// LoggerMiddleware returns a middleware that logs step execution using the provided slog.Logger.
func LoggerMiddleware[T any](l *slog.Logger) Middleware[T] {
	return func(next Step[T]) Step[T] {
		return &MidFunc[T]{
			Name: "Logger",
			Next: next,
			Fn: func(ctx context.Context, v T) (T, error) {
				start := time.Now()
				attrs := []any{"step", next.String()}
				if info, ok := GetStepInfo(ctx); ok {
					attrs = append(attrs, "index", info.Index, "id", info.ID)
				}
				l.Info("start", attrs...)
				resp, err := next.Run(ctx, v)
				if err != nil {
					l.Info("failed", append(attrs, "duration", time.Since(start), "err", err)...)
					return resp, err
				}
				l.Info("done", append(attrs, "duration", time.Since(start),
					"result", fmt.Sprintf("%v", resp))...)
				return resp, nil
			},
		}
	}
}

// RecoverMiddleware returns a middleware that turns a panic in a step into
// an error wrapping ErrStepPanic. The evaluation still stops at that step.
func RecoverMiddleware[T any]() Middleware[T] {
	return func(next Step[T]) Step[T] {
		return &MidFunc[T]{
			Name: "Recover",
			Next: next,
			Fn: func(ctx context.Context, v T) (resp T, err error) {
				defer func() {
					if r := recover(); r != nil {
						var z T
						resp = z
						err = fmt.Errorf("%w: %s: %v", ErrStepPanic, next, r)
					}
				}()
				return next.Run(ctx, v)
			},
		}
	}
}
