package renderer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by operations that need Configure first.
	ErrNotConfigured = errors.New("converter is not configured")
	// ErrNoTarget is returned when converting before a target was set.
	ErrNoTarget = errors.New("converter has no target surface")
)

// FramebufferError reports an incomplete framebuffer for a pass. The passes
// after it were not run.
type FramebufferError struct {
	Pass   int
	Status uint32
}

func (e *FramebufferError) Error() string {
	return fmt.Sprintf("pass %d: CheckFramebufferStatus() --> [0x%x]", e.Pass, e.Status)
}
