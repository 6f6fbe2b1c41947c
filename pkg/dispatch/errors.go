package dispatch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrModuleNotFound matches every ModuleNotFoundError.
	ErrModuleNotFound = errors.New("dispatch: module not found")
	// ErrModuleMismatch matches every ModuleMismatchError.
	ErrModuleMismatch = errors.New("dispatch: module mismatch")
	// ErrMissingModule matches every MissingModuleError.
	ErrMissingModule = errors.New("dispatch: missing module")
)

// ModuleNotFoundError reports a controller outside every registered module.
type ModuleNotFoundError struct {
	Controller string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("dispatch: failed to resolve the module namespace of controller %q", e.Controller)
}

func (e *ModuleNotFoundError) Is(target error) bool { return target == ErrModuleNotFound }

// StatusCode implements the HTTP status contract of viewhttp.
func (e *ModuleNotFoundError) StatusCode() int { return http.StatusInternalServerError }

// ModuleMismatchError reports a model whose module does not contain the
// controller that produced it, so no template can be derived.
type ModuleMismatchError struct {
	Controller string
	Module     string
}

func (e *ModuleMismatchError) Error() string {
	return fmt.Sprintf("dispatch: the model of controller %q names module %q; set a template on the model to use this module",
		e.Controller, e.Module)
}

func (e *ModuleMismatchError) Is(target error) bool { return target == ErrModuleMismatch }

func (e *ModuleMismatchError) StatusCode() int { return http.StatusInternalServerError }

// MissingModuleError reports a model without template and module.
type MissingModuleError struct {
	Controller string
}

func (e *MissingModuleError) Error() string {
	return fmt.Sprintf("dispatch: unable to resolve a template for the model of controller %q; the module namespace is not specified",
		e.Controller)
}

func (e *MissingModuleError) Is(target error) bool { return target == ErrMissingModule }

func (e *MissingModuleError) StatusCode() int { return http.StatusInternalServerError }
