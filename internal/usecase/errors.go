package usecase

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrInternal         = errors.New("internal error")
)
