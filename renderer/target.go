package renderer

import (
	"fmt"

	"github.com/richinsley/gpunv12/headless"
	"github.com/richinsley/gpunv12/surface"
)

// AllocateTarget allocates linear luma and chroma planes on the session's own
// device, exports them and makes them the current target. It stands in for a
// capture or encode stack that would normally hand over the planes.
func (c *Converter) AllocateTarget(width, height int) error {
	if c.device == nil {
		return ErrNotConfigured
	}

	var fds [surface.NumFDs]headless.File
	closeAll := func() {
		for i := range fds {
			fds[i].Close()
		}
	}

	var planes [2]surface.Plane
	dims := [2][2]int{{width, height}, {(width + 1) / 2, (height + 1) / 2}}
	formats := [2]uint32{surface.FormatR8, surface.FormatGR88}
	for i := range planes {
		buf, err := c.device.AllocatePlane(dims[i][0], dims[i][1], formats[i])
		if err != nil {
			closeAll()
			return fmt.Errorf("allocate %s plane: %w", surface.FormatName(formats[i]), err)
		}
		f, err := buf.Export()
		stride := buf.Stride()
		buf.Close()
		if err != nil {
			closeAll()
			return fmt.Errorf("export %s plane: %w", surface.FormatName(formats[i]), err)
		}
		fds[i] = f
		planes[i] = surface.Plane{FD: f.FD(), Width: dims[i][0], Height: dims[i][1], Pitch: stride}
	}

	if err := c.SetTarget(&fds, planes[0], planes[1]); err != nil {
		closeAll()
		return err
	}
	return nil
}
