package bench

import (
	"fmt"
	"io"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/I-Missha/seqhttpd/server"
)

func startCycleServer(b *testing.B) *server.Server {
	log := logrus.New()
	log.SetOutput(io.Discard)

	srv := server.New(server.Config{Port: 0, Log: log})
	if err := srv.Listen(); err != nil {
		b.Fatalf("failed to start server: %v", err)
	}
	go srv.Serve()

	b.Cleanup(func() { srv.Close() })
	return srv
}

// The cycle server never keeps connections alive, so every request dials a
// fresh connection and the client must send Connection: close. Requests run
// sequentially; the server processes one connection at a time anyway.
func BenchmarkFixedResponseEndToEnd(b *testing.B) {
	srv := startCycleServer(b)

	c := &fasthttp.Client{
		MaxConnsPerHost:    runtime.GOMAXPROCS(-1),
		MaxConnWaitTimeout: time.Second * 5,
	}

	url := fmt.Sprintf("http://127.0.0.1:%d/", srv.Port())

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.Set("Connection", "close")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := c.Do(req, resp); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}

		if resp.StatusCode() != fasthttp.StatusOK {
			b.Fatalf("unexpected status code: %d. Expecting %d", resp.StatusCode(), fasthttp.StatusOK)
		}
		if string(resp.Body()) != server.Body {
			b.Fatalf("unexpected response %q. Expecting %q", resp.Body(), server.Body)
		}

		resp.ResetBody()
	}
}
