package usubmit

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godzie44/go-uring/uring"
)

// Engine runs single operations through one io_uring instance: queue an
// SQE, submit, wait for the matching CQE. The connection cycle is strictly
// sequential, so there is never more than one operation in flight and no
// batching or callback table is needed.

const (
	DefaultRingSize = 64

	cqeBatchSize = 8
	waitTimeout  = 100 * time.Millisecond // retry interval while waiting for a completion
)

var ErrClosed = errors.New("engine is closed")

type Engine struct {
	mu   sync.Mutex
	ring *uring.Ring

	nextID uint64
	cqeBuf []*uring.CQEvent

	shutdown int64 // atomic
}

func NewEngine(ringSize uint32) (*Engine, error) {
	if ringSize == 0 {
		ringSize = DefaultRingSize
	}

	ring, err := uring.New(ringSize)
	if err != nil {
		return nil, err
	}

	return &Engine{
		ring:   ring,
		cqeBuf: make([]*uring.CQEvent, cqeBatchSize),
	}, nil
}

// Do submits one operation and blocks until its completion arrives.
// Completions are matched by user data; stale entries from abandoned
// operations are drained and dropped.
func (e *Engine) Do(op uring.Operation) (int32, error) {
	if atomic.LoadInt64(&e.shutdown) == 1 {
		return 0, ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	userData := e.nextID

	if err := e.ring.QueueSQE(op, 0, userData); err != nil {
		return 0, err
	}
	if _, err := e.ring.Submit(); err != nil {
		return 0, err
	}

	for {
		if atomic.LoadInt64(&e.shutdown) == 1 {
			return 0, ErrClosed
		}

		_, err := e.ring.WaitCQEventsWithTimeout(1, waitTimeout)
		if err != nil {
			continue
		}

		n := e.ring.PeekCQEventBatch(e.cqeBuf)
		for i := 0; i < n; i++ {
			cqe := e.cqeBuf[i]
			if cqe.UserData != userData {
				continue
			}

			res, opErr := cqe.Res, cqe.Error()
			e.ring.AdvanceCQ(uint32(n))
			return res, opErr
		}

		if n > 0 {
			e.ring.AdvanceCQ(uint32(n))
		}
	}
}

func (e *Engine) Close() error {
	if !atomic.CompareAndSwapInt64(&e.shutdown, 0, 1) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ring.Close()
}
