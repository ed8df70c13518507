// Package wizard drives linear multi-step forms. A Flow knows the ordered
// steps and how to validate each of them against the accumulated draft; the
// draft itself and the cursor are owned by the caller.
package wizard

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAtLastStep is returned by Next on the terminal step; use Submit there.
	ErrAtLastStep = errors.New("wizard: already on the last step")
	// ErrNotTerminal is returned by Submit before the terminal step is reached.
	ErrNotTerminal = errors.New("wizard: submit is only allowed on the last step")
	// ErrUnknownStep is returned for cursors and step names the flow does not know.
	ErrUnknownStep = errors.New("wizard: unknown step")
	// ErrForwardJump is returned by Goto when the target lies ahead of the cursor.
	ErrForwardJump = errors.New("wizard: cannot skip ahead")
)

// Step is one screen of a wizard. Validate checks only the slice of the
// draft the step edits; a nil Validate accepts everything.
type Step[T any] struct {
	Name     string
	Validate func(draft T) error
}

// Cursor points at the current step. It is stored together with the draft.
type Cursor struct {
	Index int    `json:"index"`
	Step  string `json:"step"`
}

// StepError reports which step failed validation during Submit.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Flow is an ordered list of steps over a form value of type T. It holds no
// per-session state; callers keep the Cursor alongside their draft.
type Flow[T any] struct {
	steps []Step[T]
}

// New builds a flow. Step names must be unique and at least one step is required.
func New[T any](steps ...Step[T]) *Flow[T] {
	if len(steps) == 0 {
		panic("wizard: flow needs at least one step")
	}
	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		if _, ok := seen[step.Name]; ok {
			panic(fmt.Sprintf("wizard: duplicate step %q", step.Name))
		}
		seen[step.Name] = struct{}{}
	}
	return &Flow[T]{steps: append([]Step[T](nil), steps...)}
}

// Steps lists the step names in order.
func (f *Flow[T]) Steps() []string {
	names := make([]string, 0, len(f.steps))
	for _, step := range f.steps {
		names = append(names, step.Name)
	}
	return names
}

func (f *Flow[T]) cursorAt(index int) Cursor {
	return Cursor{Index: index, Step: f.steps[index].Name}
}

// Start returns a cursor on the first step.
func (f *Flow[T]) Start() Cursor {
	return f.cursorAt(0)
}

// Check makes sure a stored cursor still matches the flow.
func (f *Flow[T]) Check(cursor Cursor) error {
	if cursor.Index < 0 || cursor.Index >= len(f.steps) || f.steps[cursor.Index].Name != cursor.Step {
		return fmt.Errorf("%w: %q", ErrUnknownStep, cursor.Step)
	}
	return nil
}

// IsTerminal reports whether the cursor is on the last step.
func (f *Flow[T]) IsTerminal(cursor Cursor) bool {
	return cursor.Index == len(f.steps)-1
}

// Next validates the current step and moves forward. On any error the
// returned cursor is the one passed in.
func (f *Flow[T]) Next(cursor Cursor, draft T) (Cursor, error) {
	if err := f.Check(cursor); err != nil {
		return cursor, err
	}
	if f.IsTerminal(cursor) {
		return cursor, ErrAtLastStep
	}
	if err := f.validate(cursor.Index, draft); err != nil {
		return cursor, err
	}
	return f.cursorAt(cursor.Index + 1), nil
}

// Back moves to the previous step without validating. It stays on the first step.
func (f *Flow[T]) Back(cursor Cursor) (Cursor, error) {
	if err := f.Check(cursor); err != nil {
		return cursor, err
	}
	if cursor.Index == 0 {
		return cursor, nil
	}
	return f.cursorAt(cursor.Index - 1), nil
}

// Goto jumps back to an earlier (or the current) step by name.
func (f *Flow[T]) Goto(cursor Cursor, name string) (Cursor, error) {
	if err := f.Check(cursor); err != nil {
		return cursor, err
	}
	for i, step := range f.steps {
		if step.Name != name {
			continue
		}
		if i > cursor.Index {
			return cursor, ErrForwardJump
		}
		return f.cursorAt(i), nil
	}
	return cursor, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}

// ValidateStep runs the validation of a single named step.
func (f *Flow[T]) ValidateStep(name string, draft T) error {
	for i, step := range f.steps {
		if step.Name == name {
			return f.validate(i, draft)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownStep, name)
}

// Submit re-validates every step in order and then calls submit. It is only
// allowed on the terminal step, and whatever happens the caller stays there.
func (f *Flow[T]) Submit(ctx context.Context, cursor Cursor, draft T, submit func(context.Context, T) error) error {
	if err := f.Check(cursor); err != nil {
		return err
	}
	if !f.IsTerminal(cursor) {
		return ErrNotTerminal
	}
	for i, step := range f.steps {
		if err := f.validate(i, draft); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return submit(ctx, draft)
}

func (f *Flow[T]) validate(index int, draft T) error {
	if validate := f.steps[index].Validate; validate != nil {
		return validate(draft)
	}
	return nil
}
