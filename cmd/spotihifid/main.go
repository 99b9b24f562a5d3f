// Command spotihifid is a long-running audio daemon: it logs into a
// streaming service, mirrors its catalog locally, drives continued
// playback, and serves a length-prefixed JSON-RPC control protocol
// over TCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/bebac/spotihifi/internal/audiosink"
	"github.com/bebac/spotihifi/internal/catalog"
	"github.com/bebac/spotihifi/internal/cmdqueue"
	"github.com/bebac/spotihifi/internal/config"
	"github.com/bebac/spotihifi/internal/engine"
	"github.com/bebac/spotihifi/internal/selector"
	"github.com/bebac/spotihifi/internal/server"
	"github.com/bebac/spotihifi/internal/session"
	"github.com/bebac/spotihifi/internal/trackstat"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "spotihifid:", err)
		return 2
	}
	if cfg.Help {
		printHelp()
		return 0
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	logger.SetLevel(log.InfoLevel)

	stats, err := trackstat.Load(cfg.TrackStatFilename)
	if err != nil {
		logger.Error("failed to load track stats", "err", err)
		return 1
	}

	cat := catalog.New()
	sel := selector.New()

	sessionFactory := func(queue *cmdqueue.Queue, cb session.EngineCallbacks, trackPlaying *atomic.Bool, currentSink func() *audiosink.Sink) session.Session {
		bridge := session.NewBridge(queue, cb, trackPlaying, currentSink)
		_ = bridge // the real streaming session, once wired, is constructed around bridge here.
		return session.Unimplemented{}
	}

	sinkFactory := func() (*audiosink.Sink, error) {
		sink := audiosink.New(audiosink.NewPortAudioDevice(), logger.With("component", "audiosink"))
		if err := sink.Open(cfg.AudioDeviceName); err != nil {
			return nil, err
		}
		go sink.Run()
		return sink, nil
	}

	eng := engine.New(sessionFactory, sinkFactory, cat, stats, sel, logger.With("component", "engine"))
	go eng.Run()

	srv, err := server.New(fmt.Sprintf("%s:%d", cfg.Address, cfg.Port), eng, logger.With("component", "server"))
	if err != nil {
		logger.Error("failed to start server", "err", err)
		return 1
	}
	logger.Info("listening", "addr", srv.Addr())

	if cfg.Username != "" {
		if err := eng.Login(context.Background(), session.Credentials{Username: cfg.Username, Password: cfg.Password}); err != nil {
			logger.Error("login failed", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx)
	})

	<-gctx.Done()
	logger.Info("shutting down")

	eng.Shutdown(cfg.TrackStatFilename)
	eng.Wait()

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "err", err)
		return 1
	}
	return 0
}

func printHelp() {
	fmt.Println(`spotihifid - audio daemon with remote JSON-RPC control

Usage:
  spotihifid [flags]

Flags:
  -h, --help                 show this help message and exit
  -a, --address IP           address to listen on (default "0.0.0.0")
  -p, --port INT             port to listen on (default 6901)
  -u, --username STRING      streaming service username
      --password STRING      streaming service password
      --audio-device STRING  audio output device name (default "default")
  -c, --conf STRING           configuration file path (default "spotihifi.conf")`)
}
