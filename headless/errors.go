package headless

import "fmt"

// DeviceError reports that a render node could not be wrapped in a GBM device.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gbm: %s: %v", e.Op, e.Err)
	}
	return "gbm: " + e.Op
}

func (e *DeviceError) Unwrap() error { return e.Err }

// DisplayError reports a failure bringing up the EGL display. Extension is set
// when the display lacks a required extension.
type DisplayError struct {
	Op        string
	Extension string
	Code      int32
}

func (e *DisplayError) Error() string {
	if e.Extension != "" {
		return fmt.Sprintf("egl: display is missing extension %s", e.Extension)
	}
	return fmt.Sprintf("egl: couldn't %s: [0x%x] %s", e.Op, e.Code, ErrorName(e.Code))
}

// ContextError reports which step of render context creation failed.
type ContextError struct {
	Step string
	Code int32
	Err  error
}

func (e *ContextError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("egl: couldn't %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("egl: couldn't %s: [0x%x] %s", e.Step, e.Code, ErrorName(e.Code))
}

func (e *ContextError) Unwrap() error { return e.Err }

// ImageError reports a failed eglCreateImage.
type ImageError struct {
	Code int32
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("egl: couldn't import image: [0x%x] %s", e.Code, ErrorName(e.Code))
}
