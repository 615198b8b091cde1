package model

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrAlreadyHandled = errors.New("already handled")
	ErrFileRequired   = errors.New("file required")
	ErrInvalid        = errors.New("invalid value")
)
