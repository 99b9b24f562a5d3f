package session

import (
	"sync/atomic"

	"github.com/bebac/spotihifi/internal/audiosink"
	"github.com/bebac/spotihifi/internal/cmdqueue"
)

// EngineCallbacks is the subset of Callbacks the engine implements
// directly. MusicDelivery and GetAudioBufferStats are excluded: the
// Bridge handles those itself on the caller's thread, per §4.8.
type EngineCallbacks interface {
	LoggedIn(err error)
	MetadataUpdated()
	NotifyMainThread()
	PlaylistContainerLoaded(playlists []PlaylistSnapshot)
	PlaylistTracksAdded(name string, tracks []TrackMeta, position int)
	PlaylistTracksRemoved(name string, positions []int)
	StartPlayback()
	EndOfTrack()
}

// Bridge implements the full Callbacks surface a Session calls into.
// Every callback except PCM delivery and buffer-stats queries is
// thunked onto the engine's command queue so it only ever runs on the
// engine's single owning goroutine; those two run inline on the
// caller's thread because they are latency-sensitive.
type Bridge struct {
	queue        *cmdqueue.Queue
	target       EngineCallbacks
	trackPlaying *atomic.Bool
	currentSink  func() *audiosink.Sink
}

// NewBridge creates a Bridge that thunks onto queue, delivers most
// callbacks to target, and consults trackPlaying/currentSink for the
// two latency-sensitive callbacks. currentSink may return nil when no
// track is loaded.
func NewBridge(queue *cmdqueue.Queue, target EngineCallbacks, trackPlaying *atomic.Bool, currentSink func() *audiosink.Sink) *Bridge {
	return &Bridge{
		queue:        queue,
		target:       target,
		trackPlaying: trackPlaying,
		currentSink:  currentSink,
	}
}

func (b *Bridge) LoggedIn(err error) {
	b.queue.Push(func() { b.target.LoggedIn(err) })
}

func (b *Bridge) MetadataUpdated() {
	b.queue.Push(func() { b.target.MetadataUpdated() })
}

func (b *Bridge) NotifyMainThread() {
	b.queue.Push(func() { b.target.NotifyMainThread() })
}

func (b *Bridge) PlaylistContainerLoaded(playlists []PlaylistSnapshot) {
	b.queue.Push(func() { b.target.PlaylistContainerLoaded(playlists) })
}

func (b *Bridge) PlaylistTracksAdded(name string, tracks []TrackMeta, position int) {
	b.queue.Push(func() { b.target.PlaylistTracksAdded(name, tracks, position) })
}

func (b *Bridge) PlaylistTracksRemoved(name string, positions []int) {
	b.queue.Push(func() { b.target.PlaylistTracksRemoved(name, positions) })
}

func (b *Bridge) StartPlayback() {
	b.queue.Push(func() { b.target.StartPlayback() })
}

func (b *Bridge) EndOfTrack() {
	b.queue.Push(func() { b.target.EndOfTrack() })
}

// MusicDelivery forwards frames to the current sink if track_playing is
// true. It never creates a sink itself: a false track_playing means the
// engine has already moved on from whatever track this delivery
// belongs to, and the frames are simply dropped (§4.8, §9).
func (b *Bridge) MusicDelivery(frames []int16) {
	if !b.trackPlaying.Load() {
		return
	}
	if sink := b.currentSink(); sink != nil {
		sink.WritePCM(frames)
	}
}

// GetAudioBufferStats reports the current sink's queued-frame count, or
// zero if no sink is active.
func (b *Bridge) GetAudioBufferStats() int {
	if sink := b.currentSink(); sink != nil {
		return int(sink.QueuedFrames())
	}
	return 0
}
