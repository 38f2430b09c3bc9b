package graphdi

import (
	"context"
	"fmt"
	"reflect"
)

// Resolver is implemented by *Container. The generic helpers accept it so
// that callers can substitute their own implementation in tests.
type Resolver interface {
	Resolve(id TypeID) (any, error)
}

var _ Resolver = (*Container)(nil)

// Resolve resolves the unnamed rule for T.
//
// Example:
//
//	repo, err := graphdi.Resolve[*users.Repository](c)
//	if err != nil {
//	    // Handle error
//	}
func Resolve[T any](r Resolver) (T, error) {
	return resolveAs[T](r, ID[T]())
}

// ResolveNamed resolves the rule for T registered with graphdi.Named(name).
func ResolveNamed[T any](r Resolver, name string) (T, error) {
	return resolveAs[T](r, NamedID[T](name))
}

// MustResolve resolves T and panics if it cannot. Useful during application
// initialization where missing services are fatal.
func MustResolve[T any](r Resolver) T {
	instance, err := Resolve[T](r)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", ID[T](), err))
	}

	return instance
}

func resolveAs[T any](r Resolver, id TypeID) (T, error) {
	var zero T

	if r == nil {
		return zero, ErrContainerNil
	}

	instance, err := r.Resolve(id)
	if err != nil {
		return zero, err
	}

	if instance == nil {
		return zero, nil
	}

	result, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{
			Expected: id.Type,
			Actual:   reflect.TypeOf(instance),
			Context:  "type assertion",
		}
	}

	return result, nil
}

// containerContextKey is the key for storing a container in a context.
type containerContextKey struct{}

// WithContainer returns a copy of ctx carrying c.
func WithContainer(ctx context.Context, c *Container) context.Context {
	return context.WithValue(ctx, containerContextKey{}, c)
}

// FromContext returns the container stored by WithContainer.
func FromContext(ctx context.Context) (*Container, error) {
	c, ok := ctx.Value(containerContextKey{}).(*Container)
	if !ok || c == nil {
		return nil, ErrContainerNotInContext
	}

	if c.IsClosed() {
		return nil, ErrContainerClosed
	}

	return c, nil
}
