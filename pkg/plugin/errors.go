package plugin

import "errors"

// Configuration errors. Returned wrapped; test with errors.Is.
var (
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrInvalidBlockSize  = errors.New("invalid block size")
	ErrInvalidCapacity   = errors.New("invalid buffer capacity")
	ErrProcessorActive   = errors.New("processor is active")
)
