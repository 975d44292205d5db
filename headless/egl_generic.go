//go:build !linux || !cgo

package headless

import "errors"

// System reports that native EGL/GBM rendering needs linux and cgo.
func System() (Platform, error) {
	return Platform{}, errors.New("egl headless rendering is not supported on this platform")
}
