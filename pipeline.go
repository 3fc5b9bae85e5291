package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Step is a single transformation of a value of type T.
type Step[T any] interface {
	Run(context.Context, T) (T, error)
	fmt.Stringer
}

// StepFunc is an adapter to allow the use of ordinary functions as steps.
type StepFunc[T any] func(context.Context, T) (T, error)

// Run executes the function.
func (f StepFunc[T]) Run(ctx context.Context, v T) (T, error) {
	return f(ctx, v)
}

// String returns the name of the function.
func (f StepFunc[T]) String() string {
	var z T
	return fmt.Sprintf("StepFunc[%T]", z)
}

// Func lifts a plain unary function into a StepFunc that never fails.
func Func[T any](fn func(T) T) StepFunc[T] {
	if fn == nil {
		return nil
	}
	return func(_ context.Context, v T) (T, error) {
		return fn(v), nil
	}
}

// MidFunc is a step produced by a middleware. Fn usually calls Next.
type MidFunc[T any] struct {
	Name string
	Next Step[T]
	Fn   StepFunc[T]
}

// Run executes the function.
func (m *MidFunc[T]) Run(ctx context.Context, v T) (T, error) {
	return m.Fn(ctx, v)
}

// String returns the middleware name followed by the wrapped step.
func (m *MidFunc[T]) String() string {
	if m.Next == nil {
		return m.Name
	}
	return m.Name + "(" + m.Next.String() + ")"
}

// Middleware is a function that wraps a step to add functionality, such as
// logging.
type Middleware[T any] func(s Step[T]) Step[T]

// Mid is a slice of middleware.
type Mid[T any] []Middleware[T]

// wrap applies the middleware to s, the first one ending up outermost.
func (m Mid[T]) wrap(s Step[T]) Step[T] {
	for _, mw := range slices.Backward(m) {
		s = mw(s)
	}
	return s
}

// namedStep is a step as stored by a pipeline.
type namedStep[T any] struct {
	name string
	step Step[T]
}

// String returns the step name.
func (s namedStep[T]) String() string { return s.name }

// Run executes the wrapped step.
func (s namedStep[T]) Run(ctx context.Context, v T) (T, error) {
	return s.step.Run(ctx, v)
}

// Pipeline is an ordered list of named steps over T. Evaluating it feeds the
// output of every step into the next one.
//
// The zero value is an empty pipeline ready to use. A Pipeline must not be
// mutated while it is being evaluated.
type Pipeline[T any] struct {
	steps []namedStep[T]
	cfg   Config[T]
}

// New creates an empty pipeline with the given middleware.
func New[T any](mid ...Middleware[T]) *Pipeline[T] {
	return NewWithConfig(Config[T]{Middleware: mid})
}

// NewWithConfig creates an empty pipeline. Zero fields of cfg are taken
// from DefaultConfig.
func NewWithConfig[T any](cfg Config[T]) *Pipeline[T] {
	return &Pipeline[T]{
		steps: make([]namedStep[T], 0),
		cfg:   cfg.withDefaults(),
	}
}

func (p *Pipeline[T]) logger() *slog.Logger {
	cfg := p.cfg
	if cfg.Logger == nil {
		cfg = cfg.withDefaults()
	}
	return cfg.Logger.With("pipeline", cfg.Name)
}

// Use appends middleware applied on every subsequent evaluation.
func (p *Pipeline[T]) Use(mid ...Middleware[T]) {
	p.cfg.Middleware = append(p.cfg.Middleware, mid...)
}

// Len returns the number of steps.
func (p *Pipeline[T]) Len() int {
	return len(p.steps)
}

// IsEmpty reports whether the pipeline has no steps.
func (p *Pipeline[T]) IsEmpty() bool {
	return len(p.steps) == 0
}

// Clear removes all steps.
func (p *Pipeline[T]) Clear() {
	n := len(p.steps)
	clear(p.steps)
	p.steps = p.steps[:0]
	p.logger().Debug("cleared", "removed", n)
}

// AddStep appends a step applying fn. The name is for display only and does
// not need to be unique; it must not be empty.
func (p *Pipeline[T]) AddStep(name string, fn func(T) T) error {
	return p.AddStepFunc(name, Func(fn))
}

// AddStepFunc appends a step that may fail. An error returned by fn aborts
// the evaluation and is handed back to the caller as is.
func (p *Pipeline[T]) AddStepFunc(name string, fn StepFunc[T]) error {
	if err := validateStep(name, fn); err != nil {
		return err
	}
	p.steps = append(p.steps, namedStep[T]{name: name, step: fn})
	p.logger().Debug("step added", "step", name, "index", len(p.steps)-1)
	return nil
}

// RemoveStep removes the step at index. Later steps move down by one.
func (p *Pipeline[T]) RemoveStep(index int) error {
	if err := validateIndex(index, len(p.steps)); err != nil {
		return err
	}
	name := p.steps[index].name
	p.steps = slices.Delete(p.steps, index, index+1)
	p.logger().Debug("step removed", "step", name, "index", index)
	return nil
}

// Names returns the step names in order.
func (p *Pipeline[T]) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return names
}

// Run applies every step in order, starting from v, and returns the output
// of the last one. An empty pipeline returns v.
func (p *Pipeline[T]) Run(ctx context.Context, v T) (T, error) {
	resp := v
	err := p.eval(ctx, v, func(out T) { resp = out })
	if err != nil {
		var z T
		return z, err
	}
	return resp, nil
}

// Trace evaluates the pipeline like Run but returns the output of every step,
// element i being the value produced by step i.
func (p *Pipeline[T]) Trace(ctx context.Context, v T) ([]T, error) {
	trace := make([]T, 0, len(p.steps))
	err := p.eval(ctx, v, func(out T) {
		trace = append(trace, SafeCopy(out))
	})
	if err != nil {
		return nil, err
	}
	return trace, nil
}

// RunAll runs the pipeline once per input and returns the results in input
// order. Up to limit inputs are evaluated at the same time; limit <= 0 means
// one at a time. Steps must be safe for concurrent use when limit > 1.
// Once an input fails, inputs not yet started are skipped.
func (p *Pipeline[T]) RunAll(ctx context.Context, values []T, limit int) ([]T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 1
	}
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	resps := make([]T, len(values))
	for i, v := range values {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			resp, err := p.Run(groupCtx, v)
			if err != nil {
				return err
			}
			resps[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resps, nil
}

// eval runs a snapshot of the steps, calling record after each one.
func (p *Pipeline[T]) eval(ctx context.Context, v T, record func(T)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	steps := slices.Clone(p.steps)
	mid := slices.Clone(p.cfg.Middleware)
	start := time.Now()

	req := v
	for i, s := range steps {
		stepCtx := withStepInfo(ctx, StepInfo{ID: nextID(), Name: s.name, Index: i})
		resp, err := mid.wrap(s).Run(stepCtx, req)
		if err != nil {
			p.logger().Debug("evaluation aborted", "step", s.name, "index", i)
			return err
		}
		record(resp)
		req = resp
	}
	p.logger().Debug("evaluation done", "steps", len(steps), "duration", time.Since(start))
	return nil
}

// String describes the pipeline: the step count followed by one line per
// step with its 1-based position and name.
func (p *Pipeline[T]) String() string {
	var buf strings.Builder
	buf.WriteString("Number of steps: ")
	buf.WriteString(strconv.Itoa(len(p.steps)))
	buf.WriteByte('\n')
	for i, s := range p.steps {
		buf.WriteString(strconv.Itoa(i + 1))
		buf.WriteString(") ")
		buf.WriteString(s.name)
		buf.WriteByte('\n')
	}
	return buf.String()
}
