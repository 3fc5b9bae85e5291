package pipeline

import (
	"errors"
	"fmt"
	"reflect"
)

// Structural errors. Failures returned by steps are never wrapped in these.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfRange      = errors.New("index out of range")
)

func validateStep[T any](name string, fn StepFunc[T]) error {
	if name == "" {
		return fmt.Errorf("step name is empty: %w", ErrInvalidArgument)
	}
	if fn == nil {
		return fmt.Errorf("step %q has no transform: %w", name, ErrInvalidArgument)
	}
	return nil
}

func validateIndex(index, size int) error {
	if index < 0 || index >= size {
		return fmt.Errorf("index %d with %d steps: %w", index, size, ErrOutOfRange)
	}
	return nil
}

// Cloner is implemented by values that can deep copy themselves. Trace clones
// every recorded value of such a type, so later steps mutating shared memory
// cannot rewrite earlier entries.
type Cloner[T any] interface {
	Clone() T
}

// SafeCopy returns a copy of v suitable for keeping while evaluation goes on.
// Types implementing Cloner are deep copied; anything else, nil pointers
// included, is copied by value.
func SafeCopy[T any](v T) T {
	if rv := reflect.ValueOf(any(v)); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return v
	}
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}
