package server

import (
	"syscall"

	"github.com/godzie44/go-uring/uring"

	"github.com/I-Missha/seqhttpd/usubmit"
)

// IO is the data-plane backend for one peer connection fd. Accept and
// close stay plain syscalls either way, so the cycle keeps its single
// suspension point.
type IO interface {
	Read(fd int, p []byte) (int, error)
	Write(fd int, p []byte) (int, error)
}

// SyscallIO is the default backend: blocking read/write syscalls.
type SyscallIO struct{}

func (SyscallIO) Read(fd int, p []byte) (int, error) {
	return syscall.Read(fd, p)
}

func (SyscallIO) Write(fd int, p []byte) (int, error) {
	return syscall.Write(fd, p)
}

// UringIO submits connection reads and writes as io_uring operations.
type UringIO struct {
	engine *usubmit.Engine
}

func NewUringIO(engine *usubmit.Engine) *UringIO {
	return &UringIO{engine: engine}
}

func (u *UringIO) Read(fd int, p []byte) (int, error) {
	res, err := u.engine.Do(uring.Read(uintptr(fd), p, 0))
	if err != nil {
		return 0, err
	}
	return int(res), nil
}

func (u *UringIO) Write(fd int, p []byte) (int, error) {
	res, err := u.engine.Do(uring.Write(uintptr(fd), p, 0))
	if err != nil {
		return 0, err
	}
	return int(res), nil
}
