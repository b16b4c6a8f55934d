package core

import "errors"

var (
	// ErrJobExists is returned when creating a job whose id is already taken.
	ErrJobExists = errors.New("core: job already exists")

	// ErrJobNotFound is returned when a job id resolves to nothing.
	ErrJobNotFound = errors.New("core: job not found")
)
