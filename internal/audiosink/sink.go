// Package audiosink drives a single audio output device from one
// owning goroutine. Writes are queued through internal/cmdqueue so
// callers on other goroutines never touch the device directly, and a
// queued-frame counter lets the engine reason about how much audio is
// still in flight without blocking on the device.
package audiosink

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bebac/spotihifi/internal/cmdqueue"
)

// openRetries and openRetryBackoff bound how long Sink.Open retries a
// failing device open before giving up.
const openRetries = 10

// openRetryBackoff is a var rather than a const so tests can shrink it.
var openRetryBackoff = time.Second

// Sink owns a Device and the single goroutine permitted to touch it.
// All other methods are safe to call from any goroutine; they merely
// enqueue work for that goroutine to run.
type Sink struct {
	dev    Device
	queue  *cmdqueue.Queue
	logger *log.Logger

	queuedFrames atomic.Int64
	playing      atomic.Bool

	done chan struct{}
}

// New creates a Sink around dev. Run must be called to start the
// worker goroutine before any write is delivered to the device.
func New(dev Device, logger *log.Logger) *Sink {
	if logger == nil {
		logger = log.Default()
	}
	return &Sink{
		dev:    dev,
		queue:  cmdqueue.New(),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Open opens the underlying device, retrying on failure up to
// openRetries times with openRetryBackoff between attempts. deviceName
// selects a specific device; empty means the platform default.
func (s *Sink) Open(deviceName string) error {
	var err error
	for attempt := 1; attempt <= openRetries; attempt++ {
		if err = s.dev.Open(deviceName); err == nil {
			return nil
		}
		s.logger.Warn("failed to open audio device", "attempt", attempt, "err", err)
		if attempt < openRetries {
			time.Sleep(openRetryBackoff)
		}
	}
	return err
}

// Run drives the command queue on the calling goroutine until Close is
// called. It is intended to be run in its own goroutine.
func (s *Sink) Run() {
	defer close(s.done)
	for {
		cmd := s.queue.Pop(0, nil)
		if cmd == nil {
			return
		}
		cmd()
	}
}

// SetPlaying toggles whether WritePCM actually delivers frames to the
// device. While not playing, queued writes are silently dropped and
// their frames are taken back out of queuedFrames when the worker
// reaches them, mirroring the "only write while track_playing"
// invariant. Switching to not playing also resets queuedFrames to zero.
func (s *Sink) SetPlaying(playing bool) {
	s.queue.Push(func() {
		s.playing.Store(playing)
		if !playing {
			s.queuedFrames.Store(0)
		}
	})
}

// WritePCM enqueues frames (interleaved int16 stereo samples) for
// delivery to the device. It returns immediately; queuedFrames
// reflects the in-flight count until the worker goroutine catches up.
func (s *Sink) WritePCM(frames []int16) {
	if len(frames) == 0 {
		return
	}
	frameCount := int64(len(frames) / channels)
	s.queuedFrames.Add(frameCount)

	s.queue.Push(func() {
		if !s.playing.Load() {
			s.queuedFrames.Add(-frameCount)
			return
		}

		accepted, err := s.dev.Write(frames)
		if err != nil {
			if _, ok := err.(*ErrUnderrun); ok {
				s.logger.Warn("audio device underrun", "err", err)
			} else {
				s.logger.Error("audio device write failed", "err", err)
			}
		}
		s.queuedFrames.Add(-int64(accepted))
	})
}

// QueuedFrames returns the number of frames currently queued or in
// flight to the device. It is always >= 0.
func (s *Sink) QueuedFrames() int64 {
	return s.queuedFrames.Load()
}

// Flush resets the queued-frame counter to zero, e.g. on skip/stop. It
// runs on the worker in queue order, so writes queued ahead of it are
// still delivered (or dropped, if not playing) before the reset; it does
// not discard them.
func (s *Sink) Flush() {
	s.queue.Push(func() {
		s.queuedFrames.Store(0)
	})
}

// Close stops the worker goroutine and closes the device. It blocks
// until the worker has exited.
func (s *Sink) Close() error {
	done := make(chan error, 1)
	s.queue.Push(func() {
		done <- s.dev.Close()
	})
	err := <-done
	s.queue.Push(nil)
	<-s.done
	return err
}
