package render

import (
	"errors"
	"fmt"
)

var (
	// ErrUnmappedExtension matches every UnmappedExtensionError.
	ErrUnmappedExtension = errors.New("render: unmapped extension")
	// ErrEngineNotFound matches every EngineNotFoundError.
	ErrEngineNotFound = errors.New("render: engine not found")
)

// UnmappedExtensionError reports a resolved file whose extension has no
// engine mapping.
type UnmappedExtensionError struct {
	Template  string
	Module    string
	Extension string
	File      string
}

func (e *UnmappedExtensionError) Error() string {
	return fmt.Sprintf("render: unable to render template %q of module %q; extension %q of %q is not mapped to any engine",
		e.Template, e.Module, e.Extension, e.File)
}

func (e *UnmappedExtensionError) Is(target error) bool {
	return target == ErrUnmappedExtension
}

// EngineNotFoundError reports a mapping that names an unregistered engine.
type EngineNotFoundError struct {
	Engine string
}

func (e *EngineNotFoundError) Error() string {
	return fmt.Sprintf("render: engine %q not found", e.Engine)
}

func (e *EngineNotFoundError) Is(target error) bool {
	return target == ErrEngineNotFound
}
