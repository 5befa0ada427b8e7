package usubmit

import (
	"os"
	"testing"

	"github.com/godzie44/go-uring/uring"
)

func TestEngineNop(t *testing.T) {
	engine, err := NewEngine(8)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer engine.Close()

	res, err := engine.Do(uring.Nop())
	if err != nil {
		t.Fatalf("Do(Nop) failed: %v", err)
	}
	if res != 0 {
		t.Errorf("Expected result 0, got %d", res)
	}
}

func TestEngineSequentialOps(t *testing.T) {
	engine, err := NewEngine(8)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer engine.Close()

	for i := 0; i < 32; i++ {
		if _, err := engine.Do(uring.Nop()); err != nil {
			t.Fatalf("Do(Nop) #%d failed: %v", i, err)
		}
	}
}

func TestEngineWrite(t *testing.T) {
	engine, err := NewEngine(8)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer engine.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe failed: %v", err)
	}
	defer r.Close()
	defer w.Close()

	payload := []byte("ping")
	res, err := engine.Do(uring.Write(w.Fd(), payload, 0))
	if err != nil {
		t.Fatalf("Do(Write) failed: %v", err)
	}
	if int(res) != len(payload) {
		t.Fatalf("Expected to write %d bytes, wrote %d", len(payload), res)
	}

	buf := make([]byte, 16)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("pipe read failed: %v", err)
	}
	if string(buf[:n]) != string(payload) {
		t.Errorf("Expected %q, got %q", payload, buf[:n])
	}
}

func TestEngineClose(t *testing.T) {
	engine, err := NewEngine(8)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	if err := engine.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	// second close is a no-op
	if err := engine.Close(); err != nil {
		t.Errorf("Second Close() failed: %v", err)
	}

	if _, err := engine.Do(uring.Nop()); err != ErrClosed {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
}
