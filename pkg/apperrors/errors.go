package apperrors

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrMissingParameters     = errors.New("missing parameter values")
	ErrInjectionDetected     = errors.New("potential SQL injection detected")
	ErrUnsupportedDatasource = errors.New("unsupported datasource type")
	ErrNoDropdownQuery       = errors.New("no dropdown query configured")
	ErrUnsupportedTemplate   = errors.New("template syntax not supported for execution")
)
