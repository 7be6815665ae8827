package models

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrEmptyInput     = errors.New("empty input")
	ErrUnknownDrink   = errors.New("unknown drink")
	ErrUnknownLoyalty = errors.New("unknown loyalty status")
)
