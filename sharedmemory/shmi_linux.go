//go:build linux

package sharedmemory

import (
	"fmt"
	"io"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Root is where POSIX shared memory objects live on Linux.
var Root = "/dev/shm"

type shmi struct {
	name   string
	fd     int
	v      []byte
	parent bool
}

func path(name string) string {
	return filepath.Join(Root, name)
}

// create is called by the owning process. A stale segment of the same name is
// removed before the new one is created and sized.
func create(name string, size int) (*shmi, error) {
	p := path(name)
	_ = unix.Unlink(p)

	fd, err := unix.Open(p, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0o660)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", p, err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		unix.Unlink(p)
		return nil, fmt.Errorf("size %s: %w", p, err)
	}
	v, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		unix.Unlink(p)
		return nil, fmt.Errorf("map %s: %w", p, err)
	}
	return &shmi{name: name, fd: fd, v: v, parent: true}, nil
}

// open maps an existing segment. A zero size maps the whole object. The
// opener never unlinks.
func open(name string, size int) (*shmi, error) {
	p := path(name)
	fd, err := unix.Open(p, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if size == 0 {
		size = int(st.Size)
	}
	if size <= 0 || int64(size) > st.Size {
		unix.Close(fd)
		return nil, fmt.Errorf("open %s: want %d bytes, segment has %d", p, size, st.Size)
	}
	v, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("map %s: %w", p, err)
	}
	return &shmi{name: name, fd: fd, v: v}, nil
}

func (o *shmi) getSize() int {
	return len(o.v)
}

func (o *shmi) bytes() []byte {
	return o.v
}

func (o *shmi) close() error {
	var err error
	if o.v != nil {
		err = unix.Munmap(o.v)
		o.v = nil
	}
	if o.fd >= 0 {
		if cerr := unix.Close(o.fd); err == nil {
			err = cerr
		}
		o.fd = -1
	}
	if o.parent {
		if uerr := unix.Unlink(path(o.name)); err == nil && uerr != unix.ENOENT {
			err = uerr
		}
		o.parent = false
	}
	return err
}

func (o *shmi) readAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off >= int64(len(o.v)) {
		return 0, io.EOF
	}
	n = copy(p, o.v[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (o *shmi) writeAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off >= int64(len(o.v)) {
		return 0, io.EOF
	}
	n = copy(o.v[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}
