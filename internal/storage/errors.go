// Package storage holds what every CustomerStore backend shares.
package storage

import "errors"

var (
	ErrNotFound      = errors.New("customer not found in store")
	ErrAlreadyExists = errors.New("customer already stored")
)
