package service

import "errors"

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrTenantExists       = errors.New("tenant already exists")
	ErrTenantInactive     = errors.New("tenant is inactive")
	ErrUnknownProduct     = errors.New("unknown product")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrPushNotSupported   = errors.New("product does not support push")
	ErrInvalidBaseline    = errors.New("invalid baseline document")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
)
