package entities

import (
	"errors"
	"fmt"
)

var ErrMissingConfig = errors.New("config must not be nil")
var ErrInvalidMatchMode = errors.New("match mode must be strict or legacy")
var ErrInvalidContinuityPolicy = errors.New("continuity policy must be discard or resume")
var ErrInvalidTimebase = errors.New("timestamp timebase must be positive")
var ErrInvalidDelimiterOffset = errors.New("delimiter offset must not be negative")
var ErrInvalidFragmentSize = errors.New("fragment size must not be negative")

var ErrMissingInput = errors.New("an input file must be given")

// Access unit
var ErrMalformedAccessUnit = errors.New("malformed access unit")
var ErrMissingPPS = fmt.Errorf("%w pps not found after sps", ErrMalformedAccessUnit)
var ErrMissingKeyFrameHeader = fmt.Errorf("%w key frame header not found", ErrMalformedAccessUnit)
var ErrShortAccessUnit = fmt.Errorf("%w shorter than the delta frame header", ErrMalformedAccessUnit)

var ErrHTTPGetOnly = errors.New("you must use http GET verb")
