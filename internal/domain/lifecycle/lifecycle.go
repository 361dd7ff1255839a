// Package lifecycle holds the timing constants shared by startup and shutdown hooks.
package lifecycle

import "time"

// DefaultTimeout bounds a single startup probe or graceful shutdown step.
const DefaultTimeout = 10 * time.Second
