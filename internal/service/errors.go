package service

import "errors"

var (
	ErrInvalidCredentials  = errors.New("incorrect email or password")
	ErrInactiveUser        = errors.New("inactive user")
	ErrIdentityRequired    = errors.New("email or telegram id is required")
	ErrPasswordRequired    = errors.New("password is required")
	ErrInvalidTelegramHash = errors.New("invalid telegram hash")
	ErrNotMonday           = errors.New("week start date must be a Monday")
	ErrNotCurrentWeek      = errors.New("only the current week can be modified")
	ErrPermissionDenied    = errors.New("not enough permissions")
	ErrInvalidToken        = errors.New("invalid or expired token")
)
