package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrValidation           = errors.New("validation error")
	ErrReviewNotFound       = errors.New("review not found")
	ErrForbidden            = errors.New("access forbidden")
	ErrSessionNotFound      = errors.New("generation session not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidState         = errors.New("invalid oauth state")
	ErrPlatformNotConnected = errors.New("google authentication required")
	ErrUpstream             = errors.New("upstream service error")
)
