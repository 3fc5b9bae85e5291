package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrNoStepID is returned by GetStepID when the context was not produced by a
// running step.
var ErrNoStepID = errors.New("no step id in context")

// IDGenerator produces the identifiers attached to every step execution.
type IDGenerator interface {
	ID() uuid.UUID
}

// RandomID generates random (version 4) UUIDs.
type RandomID struct{}

// ID returns a new random UUID.
func (RandomID) ID() uuid.UUID { return uuid.New() }

// StaticID generates predictable, increasing UUIDs. Useful in tests.
type StaticID struct {
	n atomic.Uint64
}

// ID returns the next UUID in the sequence, starting at
// 00000000-0000-0000-0000-000000000001.
func (s *StaticID) ID() uuid.UUID {
	var id uuid.UUID
	v := s.n.Add(1)
	for i := len(id) - 1; i >= len(id)-8; i-- {
		id[i] = byte(v)
		v >>= 8
	}
	return id
}

var (
	genMu sync.RWMutex
	gen   IDGenerator = RandomID{}
)

// SetIDGenerator replaces the generator used for step IDs. A nil generator
// restores the default random one.
func SetIDGenerator(g IDGenerator) {
	if g == nil {
		g = RandomID{}
	}
	genMu.Lock()
	gen = g
	genMu.Unlock()
}

func nextID() uuid.UUID {
	genMu.RLock()
	defer genMu.RUnlock()
	return gen.ID()
}

// StepInfo describes the step currently being executed.
type StepInfo struct {
	ID    uuid.UUID
	Name  string
	Index int
}

type stepInfoKey struct{}

func withStepInfo(ctx context.Context, info StepInfo) context.Context {
	return context.WithValue(ctx, stepInfoKey{}, info)
}

// GetStepInfo returns the metadata of the step running with ctx.
func GetStepInfo(ctx context.Context) (StepInfo, bool) {
	info, ok := ctx.Value(stepInfoKey{}).(StepInfo)
	return info, ok
}

// GetStepID returns the ID of the step running with ctx.
func GetStepID(ctx context.Context) (uuid.UUID, error) {
	info, ok := GetStepInfo(ctx)
	if !ok {
		return uuid.Nil, ErrNoStepID
	}
	return info.ID, nil
}
