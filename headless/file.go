package headless

import "golang.org/x/sys/unix"

// File owns a file descriptor. The zero value is empty.
type File struct {
	fd    int
	owned bool
}

// NewFile takes ownership of fd. A negative fd yields an empty File.
func NewFile(fd int) File {
	if fd < 0 {
		return File{}
	}
	return File{fd: fd, owned: true}
}

// FD returns the descriptor, or -1 when empty.
func (f File) FD() int {
	if !f.owned {
		return -1
	}
	return f.fd
}

func (f File) Valid() bool { return f.owned }

// Release gives up ownership and returns the descriptor without closing it.
func (f *File) Release() int {
	fd := f.FD()
	*f = File{}
	return fd
}

// Close closes the descriptor. Closing an empty File does nothing.
func (f *File) Close() error {
	if !f.owned {
		return nil
	}
	fd := f.fd
	*f = File{}
	return unix.Close(fd)
}
