package headless

import (
	"errors"
	"fmt"
)

// Device is a GBM device wrapping a render node. It owns the node's descriptor.
type Device struct {
	gbm    GBM
	file   File
	handle uintptr
}

// OpenDevice wraps file in a GBM device. It always takes ownership of file and
// closes it when the device can't be created.
func OpenDevice(gbm GBM, file File) (*Device, error) {
	if err := gbm.Available(); err != nil {
		file.Close()
		return nil, &DeviceError{Op: "load libgbm", Err: err}
	}
	if !file.Valid() {
		return nil, &DeviceError{Op: "create device", Err: errors.New("invalid file descriptor")}
	}
	handle := gbm.CreateDevice(file.FD())
	if handle == 0 {
		file.Close()
		return nil, &DeviceError{Op: "create device"}
	}
	return &Device{gbm: gbm, file: file, handle: handle}, nil
}

// Handle returns the native gbm_device pointer.
func (d *Device) Handle() uintptr { return d.handle }

func (d *Device) FD() int { return d.file.FD() }

// AllocatePlane creates a linear buffer object usable as a render target, such
// as one plane of an NV12 frame.
func (d *Device) AllocatePlane(width, height int, fourcc uint32) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid plane size %dx%d", width, height)
	}
	bo := d.gbm.CreateBuffer(d.handle, width, height, fourcc, BufferUseRendering|BufferUseLinear)
	if bo == 0 {
		return nil, &DeviceError{Op: fmt.Sprintf("allocate %dx%d buffer", width, height)}
	}
	return &Buffer{gbm: d.gbm, handle: bo, Width: width, Height: height, Format: fourcc}, nil
}

// Close destroys the GBM device and closes the render node.
func (d *Device) Close() {
	if d == nil {
		return
	}
	if d.handle != 0 {
		d.gbm.DestroyDevice(d.handle)
		d.handle = 0
	}
	d.file.Close()
}

// Buffer is a GBM buffer object.
type Buffer struct {
	gbm    GBM
	handle uintptr

	Width, Height int
	Format        uint32
}

// Export returns a new dma-buf descriptor for the buffer. The caller owns it.
func (b *Buffer) Export() (File, error) {
	fd := b.gbm.BufferFD(b.handle)
	if fd < 0 {
		return File{}, &DeviceError{Op: "export buffer"}
	}
	return NewFile(fd), nil
}

// Stride returns the row pitch in bytes.
func (b *Buffer) Stride() int { return b.gbm.BufferStride(b.handle) }

func (b *Buffer) Close() {
	if b == nil || b.handle == 0 {
		return
	}
	b.gbm.DestroyBuffer(b.handle)
	b.handle = 0
}
