package server

import (
	"fmt"
	"net/netip"
	"sync/atomic"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/I-Missha/seqhttpd/metrics"
)

const (
	DefaultPort       = 8080
	DefaultBacklog    = 3
	DefaultBufferSize = 1024
)

// Body is the static HTML payload sent to every peer.
const Body = "<html><body><h1>Hello from your C++ Web Server!</h1></body></html>"

// Response is the byte-exact wire payload. There is no Content-Length:
// the peer detects end of body from the connection close.
const Response = "HTTP/1.1 200 OK\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	Body

// Config carries the cycle parameters as explicit values so tests can
// vary them (port 0 binds an ephemeral port).
type Config struct {
	Port       int
	Backlog    int
	BufferSize int

	// IO is the backend for per-connection reads and writes. Defaults to
	// plain blocking syscalls; NewUringIO routes them through io_uring.
	IO IO

	Log     *logrus.Logger
	Metrics *metrics.Cycle
}

// Server owns the listening endpoint and serves peer connections strictly
// one at a time: accept, read once, write the fixed response, close.
type Server struct {
	cfg  Config
	fd   int
	port int

	closed int64 // atomic

	io      IO
	log     *logrus.Logger
	metrics *metrics.Cycle
}

func New(cfg Config) *Server {
	if cfg.Backlog <= 0 {
		cfg.Backlog = DefaultBacklog
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.IO == nil {
		cfg.IO = SyscallIO{}
	}
	if cfg.Log == nil {
		cfg.Log = logrus.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCycle(prometheus.NewRegistry())
	}

	return &Server{
		cfg:     cfg,
		fd:      -1,
		io:      cfg.IO,
		log:     cfg.Log,
		metrics: cfg.Metrics,
	}
}

// Listen creates the IPv4 listening socket, binds it to the configured
// port on all interfaces and puts it into listening state. Every failure
// is fatal to the endpoint: the partially-created socket is closed and
// the error returned. There is no retry.
func (s *Server) Listen() error {
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("could not create socket: %w", err)
	}

	// zero Addr means INADDR_ANY
	sa := &syscall.SockaddrInet4{Port: s.cfg.Port}
	if err := syscall.Bind(fd, sa); err != nil {
		syscall.Close(fd)
		return fmt.Errorf("could not bind socket to port %d: %w", s.cfg.Port, err)
	}

	if err := syscall.Listen(fd, s.cfg.Backlog); err != nil {
		syscall.Close(fd)
		return fmt.Errorf("could not listen on socket: %w", err)
	}

	bound, err := syscall.Getsockname(fd)
	if err != nil {
		syscall.Close(fd)
		return fmt.Errorf("could not resolve bound address: %w", err)
	}

	s.fd = fd
	s.port = bound.(*syscall.SockaddrInet4).Port
	s.log.Infof("server listening on port %d", s.port)
	return nil
}

// Port reports the actually bound port.
func (s *Server) Port() int {
	return s.port
}

// Serve runs the connection cycle until the listening endpoint is closed.
// The shipped binary never closes it, so the loop runs until the process
// is killed. Each iteration is self-contained: per-connection failures are
// logged and absorbed, never propagated.
func (s *Server) Serve() {
	buf := make([]byte, s.cfg.BufferSize)

	for {
		nfd, sa, err := syscall.Accept(s.fd)
		if err != nil {
			if atomic.LoadInt64(&s.closed) == 1 {
				return
			}
			if err == syscall.EINTR {
				continue
			}
			s.metrics.AcceptErrors.Inc()
			s.log.Errorf("could not accept connection: %s", err)
			continue
		}

		s.metrics.Accepted.Inc()
		s.log.Infof("connection accepted from %s", peerAddr(sa))

		// one read only; the last buffer byte stays untouched so the
		// payload is a bounded text chunk. Requests larger than the buffer
		// are truncated on purpose.
		n, err := s.io.Read(nfd, buf[:len(buf)-1])
		if err != nil {
			s.metrics.ReadErrors.Inc()
			s.log.Errorf("failed to read from socket: %s", err)
			syscall.Close(nfd)
			continue
		}

		// a zero-length read (peer closed without sending) still gets the
		// response, same as any other request
		s.log.Infof("received request:\n%s", buf[:n])

		// single write, result deliberately unchecked; partial writes are
		// not retried
		_, _ = s.io.Write(nfd, []byte(Response))
		s.metrics.Responses.Inc()

		syscall.Close(nfd)
		s.log.Info("connection closed")
	}
}

// Close shuts the listening endpoint and makes Serve return. The binary
// relies on process exit instead; this exists for tests and benchmarks.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt64(&s.closed, 0, 1) {
		return nil
	}
	if s.fd < 0 {
		return nil
	}
	return syscall.Close(s.fd)
}

func peerAddr(sa syscall.Sockaddr) netip.AddrPort {
	if in, ok := sa.(*syscall.SockaddrInet4); ok {
		return netip.AddrPortFrom(netip.AddrFrom4(in.Addr), uint16(in.Port))
	}
	return netip.AddrPort{}
}
