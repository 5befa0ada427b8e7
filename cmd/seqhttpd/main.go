package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/I-Missha/seqhttpd/metrics"
	"github.com/I-Missha/seqhttpd/server"
	"github.com/I-Missha/seqhttpd/usubmit"
)

// The core parameters are fixed, not flags.
const (
	port       = server.DefaultPort
	backlog    = server.DefaultBacklog
	bufferSize = server.DefaultBufferSize
)

var (
	useUring    = flag.Bool("uring", false, "run connection reads and writes through io_uring")
	metricsAddr = flag.String("metrics-addr", "", "serve prometheus metrics on this address (disabled when empty)")
)

func main() {
	flag.Parse()

	log := logrus.New()

	registry := prometheus.NewRegistry()

	cfg := server.Config{
		Port:       port,
		Backlog:    backlog,
		BufferSize: bufferSize,
		Log:        log,
		Metrics:    metrics.NewCycle(registry),
	}

	if *useUring {
		engine, err := usubmit.NewEngine(usubmit.DefaultRingSize)
		if err != nil {
			log.Fatalf("failed to create uring engine: %s", err)
		}
		defer engine.Close()
		cfg.IO = server.NewUringIO(engine)
	}

	if *metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(*metricsAddr, metrics.Handler(registry)); err != nil {
				log.Errorf("metrics endpoint: %s", err)
			}
		}()
	}

	srv := server.New(cfg)
	if err := srv.Listen(); err != nil {
		// exit code 1 on any setup failure
		log.Fatalf("failed to start server: %s", err)
	}

	// runs until the process is killed; the listening socket is released
	// on process exit
	srv.Serve()
}
