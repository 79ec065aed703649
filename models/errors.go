package models

import "errors"

var (
	// ErrInvalidInput signals a spot, strike or horizon outside the
	// domain of the closed-form formula.
	ErrInvalidInput = errors.New("invalid pricing input")

	// ErrInvalidVolatility signals a volatility at or below zero, for
	// which d1 and d2 are undefined.
	ErrInvalidVolatility = errors.New("invalid volatility")

	// ErrSampleCount signals a random sample sequence whose length does
	// not match steps * numSimulations.
	ErrSampleCount = errors.New("sample count mismatch")
)
