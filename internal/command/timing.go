package command

import "time"

// Fixed per-action bounds. The executor and every compiler target use these
// same values.
const (
	SelectorTimeout   = 10 * time.Second
	NavigationTimeout = 30 * time.Second
	TextTimeout       = 10 * time.Second
	EvaluateTimeout   = 10 * time.Second
	DefaultWait       = 1000 * time.Millisecond
	ScrollSettle      = 500 * time.Millisecond
	KeystrokeDelay    = 50 * time.Millisecond
)
