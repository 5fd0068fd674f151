// Package errors provides enhanced errors carrying a component name,
// a category, and structured context, while staying compatible with
// the standard library errors package.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies an error for logging and API responses.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryNetwork       Category = "network"
	CategoryNotFound      Category = "not-found"
	CategoryDatabase      Category = "database"
	CategoryConfiguration Category = "configuration"
	CategoryState         Category = "state"
	CategoryGeneric       Category = "generic"
)

// EnhancedError wraps an error with component, category, and context metadata.
type EnhancedError struct {
	err       error
	component string
	category  Category
	context   map[string]any
}

// Error implements the error interface.
func (e *EnhancedError) Error() string {
	return e.err.Error()
}

// Unwrap returns the wrapped error for errors.Is/As chains.
func (e *EnhancedError) Unwrap() error {
	return e.err
}

// GetComponent returns the component that produced the error.
func (e *EnhancedError) GetComponent() string {
	return e.component
}

// GetCategory returns the error's category.
func (e *EnhancedError) GetCategory() Category {
	return e.category
}

// GetContext returns a single context value and whether it was set.
func (e *EnhancedError) GetContext(key string) (any, bool) {
	v, ok := e.context[key]
	return v, ok
}

// Builder assembles an EnhancedError.
type Builder struct {
	e *EnhancedError
}

// New starts a builder wrapping an existing error.
func New(err error) *Builder {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &Builder{e: &EnhancedError{
		err:      err,
		category: CategoryGeneric,
		context:  make(map[string]any),
	}}
}

// Newf starts a builder from a formatted message.
func Newf(format string, args ...any) *Builder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name.
func (b *Builder) Component(name string) *Builder {
	b.e.component = name
	return b
}

// Category sets the error category.
func (b *Builder) Category(c Category) *Builder {
	b.e.category = c
	return b
}

// Context attaches a key/value pair.
func (b *Builder) Context(key string, value any) *Builder {
	b.e.context[key] = value
	return b
}

// Build finalizes the error.
func (b *Builder) Build() error {
	return b.e
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join wraps the standard library errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
