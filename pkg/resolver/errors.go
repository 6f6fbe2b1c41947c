package resolver

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound matches every TemplateNotFoundError.
	ErrTemplateNotFound = errors.New("resolver: template not found")
	// ErrBrokenRegistration matches every BrokenRegistrationError.
	ErrBrokenRegistration = errors.New("resolver: registered template file missing")
)

// TemplateNotFoundError reports that no strategy (explicit table, module
// discovery, last module fallback) produced a path.
type TemplateNotFoundError struct {
	Template string
	Module   string
}

func (e *TemplateNotFoundError) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("resolver: template %q of module %q not found", e.Template, e.Module)
	}
	return fmt.Sprintf("resolver: template %q not found", e.Template)
}

// Is lets errors.Is match ErrTemplateNotFound.
func (e *TemplateNotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// BrokenRegistrationError reports a template whose registered (or previously
// discovered) file no longer exists on disk.
type BrokenRegistrationError struct {
	Template string
	Path     string
}

func (e *BrokenRegistrationError) Error() string {
	return fmt.Sprintf("resolver: file %q of template %q does not exist", e.Path, e.Template)
}

// Is lets errors.Is match ErrBrokenRegistration.
func (e *BrokenRegistrationError) Is(target error) bool {
	return target == ErrBrokenRegistration
}
