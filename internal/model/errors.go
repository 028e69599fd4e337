package model

import "errors"

// Error kinds shared by the fetcher, the decision engine and the orchestrator.
// Concrete errors wrap one of these and are matched with errors.Is.
var (
	ErrHostResolution = errors.New("host resolution failed")
	ErrNetwork        = errors.New("network error")
	ErrParse          = errors.New("parse error")
)
