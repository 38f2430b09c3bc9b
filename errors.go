package graphdi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/graphdi/internal/graph"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================

var (
	// Registration errors.
	ErrRuleNil     = errors.New("rule cannot be nil")
	ErrFactoryNil  = errors.New("factory cannot be nil")
	ErrGraphSealed = errors.New("provider graph has already been built")

	// Container errors.
	ErrContainerNil          = errors.New("container cannot be nil")
	ErrContainerClosed       = errors.New("container has been closed")
	ErrContainerNotInContext = errors.New("no container found in context")
)

var (
	_ error = LifetimeError{}
	_ error = DuplicateRuleError{}
	_ error = UnknownTypeError{}
	_ error = CyclicDependencyError{}
	_ error = FactoryError{}
	_ error = FactoryPanicError{}
	_ error = TypeMismatchError{}
	_ error = ModuleError{}
	_ error = BuildError{}
	_ error = DisposalError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// LifetimeError indicates an invalid lifetime value.
type LifetimeError struct {
	Value any
}

func (e LifetimeError) Error() string {
	return fmt.Sprintf("invalid lifetime: %v", e.Value)
}

// DuplicateRuleError indicates a rule for the type identifier is already
// registered in the provider graph.
type DuplicateRuleError struct {
	ID TypeID
}

func (e DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule for %s already registered (use graphdi.Named to register another)", e.ID)
}

// UnknownTypeError indicates that no rule is registered for a requested type
// identifier. RequiredBy is set when the identifier was reached as a
// dependency of another rule.
type UnknownTypeError struct {
	ID         TypeID
	RequiredBy TypeID
}

func (e UnknownTypeError) Error() string {
	if e.RequiredBy.Type != nil {
		return fmt.Sprintf("no rule registered for %s (required by %s)", e.ID, e.RequiredBy)
	}
	return fmt.Sprintf("no rule registered for %s", e.ID)
}

// CyclicDependencyError indicates that resolving a type identifier re-entered
// itself. Path lists the identifiers on the cycle.
type CyclicDependencyError = graph.CycleError[TypeID]

// FactoryError wraps an error returned by a rule's factory.
type FactoryError struct {
	ID    TypeID
	Cause error
}

func (e FactoryError) Error() string {
	return fmt.Sprintf("factory for %s failed: %v", e.ID, e.Cause)
}

func (e FactoryError) Unwrap() error {
	return e.Cause
}

// FactoryPanicError indicates a factory panicked during invocation.
// It captures the panic value and stack trace for debugging.
type FactoryPanicError struct {
	ID    TypeID
	Panic any
	Stack []byte
}

func (e FactoryPanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("factory for %s panicked: %v\n", e.ID, e.Panic))

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// TypeMismatchError indicates a resolved instance could not be asserted to
// the requested Go type.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// ModuleError wraps errors from module registration.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// BuildError wraps errors that occur while building a container.
type BuildError struct {
	Phase string // "validation", "singleton-creation"
	Cause error
}

func (e BuildError) Error() string {
	return fmt.Sprintf("build failed during %s phase: %v", e.Phase, e.Cause)
}

func (e BuildError) Unwrap() error {
	return e.Cause
}

// DisposalError aggregates errors returned while closing cached instances.
type DisposalError struct {
	Errors []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("container disposal failed: %v", e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("container disposal failed with %d errors:", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

func (e DisposalError) Unwrap() []error {
	return e.Errors
}

// IsUnknownType reports whether err is or wraps an UnknownTypeError.
func IsUnknownType(err error) bool {
	var target UnknownTypeError
	return errors.As(err, &target)
}

// IsCycle reports whether err is or wraps a CyclicDependencyError.
func IsCycle(err error) bool {
	var target CyclicDependencyError
	return errors.As(err, &target)
}

// IsDuplicate reports whether err is or wraps a DuplicateRuleError.
func IsDuplicate(err error) bool {
	var target DuplicateRuleError
	return errors.As(err, &target)
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
