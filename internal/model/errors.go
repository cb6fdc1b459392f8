package model

import (
	"errors"
	"fmt"

	"typeweave/internal/binding"
	"typeweave/internal/diag"
	"typeweave/internal/meta"
	"typeweave/internal/override"
)

// ErrConfiguration is matched by every configuration error of a mutation.
var ErrConfiguration = errors.New("configuration error")

var (
	ErrInvalidAttributes      = errors.New("invalid attribute combination")
	ErrDuplicateMember        = errors.New("member with identical signature already exists")
	ErrStaticConstructor      = errors.New("static constructors are not supported")
	ErrCannotModify           = errors.New("member cannot be modified")
	ErrInvalidCustomAttribute = errors.New("invalid custom attribute declaration")
	ErrInvalidBody            = errors.New("invalid member body")
	ErrExplicitOverride       = errors.New("invalid explicit override")
	ErrInvalidParameter       = errors.New("invalid parameter")
	ErrUnknownMember          = errors.New("unknown member")
	ErrInvalidEvent           = errors.New("invalid event")
	ErrInvalidProperty        = errors.New("invalid property")
	ErrInvalidType            = errors.New("invalid type reference")
	ErrInterfaceNotFound      = errors.New("interface not found")
	ErrUnimplemented          = errors.New("interface methods are not implemented")
	ErrAlreadyImplemented     = errors.New("interface is already implemented")

	ErrFinalOverride    = override.ErrFinalOverride
	ErrOutsideHierarchy = override.ErrOutsideHierarchy
	ErrNotVirtual       = override.ErrNotVirtual
	ErrNotInterface     = meta.ErrNotInterface

	// ErrAmbiguousMatch is a lookup failure, not a configuration error.
	ErrAmbiguousMatch = binding.ErrAmbiguousMatch
)

// ConfigError describes a rejected mutation. It matches ErrConfiguration and
// its specific sentinel through errors.Is.
type ConfigError struct {
	Code    diag.Code
	Subject string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Subject == "" {
		return e.Message
	}
	return e.Subject + ": " + e.Message
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

// Diagnostic converts the error into an error diagnostic located at path.
func (e *ConfigError) Diagnostic(path string) diag.Diagnostic {
	return diag.NewError(e.Code, diag.Location{Path: path, Subject: e.Subject}, e.Message)
}

func configErr(code diag.Code, sentinel error, subject, format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:    code,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
		Err:     sentinel,
	}
}

// resolverErr maps a resolver rejection onto a configuration error.
func resolverErr(subject string, err error) *ConfigError {
	code := diag.ModelOutsideHierarchy
	switch {
	case errors.Is(err, override.ErrFinalOverride):
		code = diag.ModelFinalOverride
	case errors.Is(err, override.ErrNotVirtual):
		code = diag.ModelNotVirtual
	}
	return &ConfigError{Code: code, Subject: subject, Message: err.Error(), Err: err}
}
