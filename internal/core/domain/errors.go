package domain

import "errors"

var (
	ErrInvalidSpec     = errors.New("invalid repository spec")
	ErrInvalidWindow   = errors.New("invalid time window")
	ErrAuthentication  = errors.New("remote source rejected credentials")
	ErrRateLimited     = errors.New("remote source rate limit exceeded")
	ErrMalformedRecord = errors.New("malformed remote record")
	ErrInvalidEvent    = errors.New("invalid event URL")
)
