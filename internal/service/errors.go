package service

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")

	ErrInvalidCredentials = errors.New("wrong username or password")
	ErrNotApproved        = errors.New("membership not approved")
)
