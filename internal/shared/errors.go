package shared

import "fmt"

var (
	// Authentication errors
	ErrUnauthorized = fmt.Errorf("invalid or missing API key")
	ErrKeyExists    = fmt.Errorf("key already exists for user")
	ErrUnknownUser  = fmt.Errorf("user not found")

	// Resolution and upstream errors
	ErrResolutionFailed = fmt.Errorf("resolution failed")
	ErrNoAudioFormat    = fmt.Errorf("no playable audio format")
	ErrUpstream         = fmt.Errorf("upstream extractor request failed")

	// Per-user store errors
	ErrNotFound = fmt.Errorf("not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
