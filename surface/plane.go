// Package surface imports dma-buf planes as GL textures without copying them.
package surface

import (
	"errors"
	"fmt"

	"github.com/richinsley/gpunv12/headless"
)

// DRM fourcc codes of the imported planes.
const (
	FormatXRGB8888 uint32 = 'X' | 'R'<<8 | '2'<<16 | '4'<<24
	FormatR8       uint32 = 'R' | '8'<<8 | ' '<<16 | ' '<<24
	FormatGR88     uint32 = 'G' | 'R'<<8 | '8'<<16 | '8'<<24
)

// BytesPerPixel returns the pixel size of a supported format, or 0.
func BytesPerPixel(format uint32) int {
	switch format {
	case FormatXRGB8888:
		return 4
	case FormatR8:
		return 1
	case FormatGR88:
		return 2
	}
	return 0
}

// FormatName renders a fourcc as its four characters.
func FormatName(format uint32) string {
	return string([]byte{byte(format), byte(format >> 8), byte(format >> 16), byte(format >> 24)})
}

// Plane describes one plane of a dma-buf. The descriptor is borrowed; whoever
// supplied it keeps ownership unless stated otherwise.
type Plane struct {
	FD     int
	Width  int
	Height int
	Offset int
	Pitch  int
}

func (p Plane) validate(format uint32) error {
	switch {
	case p.FD < 0:
		return fmt.Errorf("invalid file descriptor %d", p.FD)
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("invalid size %dx%d", p.Width, p.Height)
	case p.Offset < 0:
		return fmt.Errorf("invalid offset %d", p.Offset)
	case p.Pitch < p.Width*BytesPerPixel(format):
		return fmt.Errorf("pitch %d too small for %d %s pixels", p.Pitch, p.Width, FormatName(format))
	}
	return nil
}

func (p Plane) attribs(format uint32) []int {
	return []int{
		headless.Width, p.Width,
		headless.Height, p.Height,
		headless.LinuxDrmFourCC, int(format),
		headless.DmaBufPlane0FD, p.FD,
		headless.DmaBufPlane0Offset, p.Offset,
		headless.DmaBufPlane0Pitch, p.Pitch,
		headless.AttribNone,
	}
}

// ImportError reports a plane that could not be imported. Code is the EGL
// error when the driver rejected the plane.
type ImportError struct {
	Plane string
	Code  int32
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("couldn't import %s plane: %v", e.Plane, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Image is an EGL image wrapping one plane. It belongs to the display it was
// created on.
type Image struct {
	display *headless.Display
	handle  uintptr
}

func importImage(display *headless.Display, name string, p Plane, format uint32) (*Image, error) {
	if err := p.validate(format); err != nil {
		return nil, &ImportError{Plane: name, Err: err}
	}
	handle, err := display.CreateImage(p.attribs(format))
	if err != nil {
		ie := &ImportError{Plane: name, Err: err}
		var e *headless.ImageError
		if errors.As(err, &e) {
			ie.Code = e.Code
		}
		return nil, ie
	}
	return &Image{display: display, handle: handle}, nil
}

func (i *Image) Handle() uintptr { return i.handle }

// Destroy releases the image. Textures bound to it must be deleted first.
func (i *Image) Destroy() {
	if i == nil || i.handle == 0 {
		return
	}
	i.display.DestroyImage(i.handle)
	i.handle = 0
}
