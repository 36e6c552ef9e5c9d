package errutil

import (
	"github.com/pkg/errors"
)

var (
	ErrIllegalParameter   = errors.New("illegal parameter")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrNotFound           = errors.New("not found")
	ErrDBOperation        = errors.New("database opertaion failed")
	ErrServerInternal     = errors.New("server internal error")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotImplemented     = errors.New("not implemented")
	ErrConfig             = errors.New("dice configuration error")
	ErrResolution         = errors.New("die value resolution failed")
	ErrNotInitialized     = errors.New("world not initialized")
	ErrAlreadyInitialized = errors.New("world already initialized")
	ErrRequestTimeout     = errors.New("request timeout")
	ErrIllegalNotation    = errors.New("illegal roll notation")
	ErrIllegalDieState    = errors.New("illegal die state transition")
	ErrDieNotFound        = errors.New("die not found")
	ErrRollNotFound       = errors.New("roll not found")
	ErrWorldClosed        = errors.New("world closed")
	ErrTransportClosed    = errors.New("transport closed")
)

// Code code for the error, wrapped errors are unwrapped to their cause
func Code(err error) int {
	if err == nil {
		return OK
	}
	if c, ok := errs[errors.Cause(err)]; ok {
		return c
	}
	return Unknown
}

// Is reports whether err was caused by target
func Is(err, target error) bool {
	return err != nil && errors.Cause(err) == target
}
