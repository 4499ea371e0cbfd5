// Package shm implements the anonymous shared region: a memory mapping
// that the parent creates and a forked child can write into, with the
// parent reading the result back after the child exits.
//
// A real fork() (copy-on-write address space) is not something Go code can
// safely do: the runtime's goroutine scheduler and its background threads
// do not survive a bare fork into anything other than exec. This module
// instead re-execs os.Args[0] with a hidden verb and backs the shared
// region with a memfd: an anonymous, unlinked file descriptor created
// with MFD_CLOEXEC unset, inherited across exec via (*exec.Cmd).ExtraFiles,
// and mapped MAP_SHARED by both sides. The result is the same single-writer-
// then-single-reader visibility a true fork would give, just achieved
// through an inherited fd instead of a COW page table.
package shm

import (
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/gridsynth/udfrun/internal/errs"
)

// Region is an anonymous shared memory mapping of a fixed size.
type Region struct {
	fd   int
	size int64
	data []byte
}

// Create allocates a memfd of the given size and maps it read/write,
// shared. The returned Region's FD method exposes the backing descriptor
// so a caller can pass it to a child process via exec.Cmd.ExtraFiles;
// Map reconstructs a Region from an inherited descriptor on the other
// side of that handoff.
func Create(size int64) (*Region, error) {
	if size <= 0 {
		return nil, errs.MapError("create", xerrors.Errorf("region size must be positive, got %d", size))
	}
	fd, err := unix.MemfdCreate("udfrun-output-region", 0)
	if err != nil {
		return nil, errs.MapError("create", err)
	}
	if err := unix.Ftruncate(fd, size); err != nil {
		unix.Close(fd)
		return nil, errs.MapError("create", err)
	}
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, errs.MapError("create", err)
	}
	return &Region{fd: fd, size: size, data: data}, nil
}

// Map reconstructs a Region from a file descriptor inherited across exec
// (the child side of the handoff).
func Map(fd int, size int64) (*Region, error) {
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errs.MapError("map", err)
	}
	return &Region{fd: fd, size: size, data: data}, nil
}

// FD returns the backing file descriptor, for handing to a child process
// via exec.Cmd.ExtraFiles.
func (r *Region) FD() int { return r.fd }

// Bytes returns the mapped region. The slice is only valid until Destroy.
func (r *Region) Bytes() []byte { return r.data }

// Size returns the region's size in bytes.
func (r *Region) Size() int64 { return r.size }

// Destroy unmaps the region. It does not close the file descriptor: the
// creator (parent) is responsible for closing its own fd, and the mapping
// for any duplicate fd the child holds disappears when that process exits.
func (r *Region) Destroy() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	if err != nil {
		return errs.MapError("destroy", err)
	}
	return nil
}

// Close unmaps and closes the backing descriptor. Used by whichever side
// created the fd (the parent, via Create).
func (r *Region) Close() error {
	destroyErr := r.Destroy()
	closeErr := unix.Close(r.fd)
	if destroyErr != nil {
		return destroyErr
	}
	if closeErr != nil {
		return errs.MapError("close", closeErr)
	}
	return nil
}
