package graphics

import (
	"fmt"
	"log/slog"
)

// GpuError is an error code the driver queued instead of returning it from the
// call that caused it. It is advisory: DrainErrors logs it and never fails.
type GpuError struct {
	Site string
	Code uint32
}

func (e GpuError) Error() string {
	return fmt.Sprintf("GL: %s: [0x%x] %s", e.Site, e.Code, ErrorName(e.Code))
}

// ErrorName returns the symbolic name of a glGetError code.
func ErrorName(code uint32) string {
	switch code {
	case NoError:
		return "GL_NO_ERROR"
	case InvalidEnum:
		return "GL_INVALID_ENUM"
	case InvalidValue:
		return "GL_INVALID_VALUE"
	case InvalidOperation:
		return "GL_INVALID_OPERATION"
	case OutOfMemory:
		return "GL_OUT_OF_MEMORY"
	case InvalidFramebufferOperation:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	default:
		return "unknown"
	}
}

// maxDrain bounds the loop in case a broken driver never reports GL_NO_ERROR.
const maxDrain = 64

// DrainErrors empties the GL error queue, logging every code tagged with site.
// The drained codes are returned for callers that want to inspect them.
func DrainErrors(gl GL, site string) []GpuError {
	var drained []GpuError
	for i := 0; i < maxDrain; i++ {
		code := gl.GetError()
		if code == NoError {
			break
		}
		e := GpuError{Site: site, Code: code}
		slog.Error("GL error", "site", site, "code", fmt.Sprintf("0x%x", code), "name", ErrorName(code))
		drained = append(drained, e)
	}
	return drained
}
