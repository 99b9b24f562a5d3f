// Package session defines the boundary between the playback engine and
// the third-party streaming service. The service itself is out of
// scope: it is "an opaque session with a fixed callback surface", so
// this package only declares that surface, a fake implementation for
// tests, and the Unimplemented placeholder session.
package session

import "context"

// Credentials authenticates a login attempt.
type Credentials struct {
	Username string
	Password string
}

// TrackMeta is the metadata the session reports for a track, ahead of
// it being merged into the catalog.
type TrackMeta struct {
	TrackID     string
	Title       string
	TrackNumber int
	DurationMs  int
	Artist      string
	Album       string
	AlbumID     string
	CoverID     string
	Available   bool
}

// PlaylistSnapshot is a full playlist as reported by the session, e.g.
// on initial container load.
type PlaylistSnapshot struct {
	Name   string
	Tracks []TrackMeta
}

// Callbacks is the fixed set of asynchronous events the session
// delivers. A Session implementation calls exactly these methods;
// callers (the engine) supply an implementation and the bridge
// (bridge.go) decides which thread each call lands on.
type Callbacks interface {
	// LoggedIn reports the outcome of a login attempt.
	LoggedIn(err error)
	// MetadataUpdated fires when a previously incomplete track or
	// playlist handle has finished resolving its metadata.
	MetadataUpdated()
	// NotifyMainThread requests that the owner call Session.ProcessEvents
	// soon. May be called from any session-internal thread.
	NotifyMainThread()
	// PlaylistContainerLoaded reports the user's full set of playlists,
	// including the synthetic "Starred" playlist.
	PlaylistContainerLoaded(playlists []PlaylistSnapshot)
	// PlaylistTracksAdded reports tracks inserted into playlist name at
	// position.
	PlaylistTracksAdded(name string, tracks []TrackMeta, position int)
	// PlaylistTracksRemoved reports track positions removed from
	// playlist name.
	PlaylistTracksRemoved(name string, positions []int)
	// StartPlayback fires when the service has started decoding the
	// currently loaded track.
	StartPlayback()
	// EndOfTrack fires when the currently loaded track finishes playing
	// naturally.
	EndOfTrack()
	// MusicDelivery delivers PCM frames (interleaved int16 stereo
	// samples) for the currently loaded track. Called from a
	// session-internal thread; latency-sensitive (§4.8).
	MusicDelivery(frames []int16)
	// GetAudioBufferStats is polled by the session to decide how much
	// more audio it may push; the callee reports how many frames are
	// currently queued downstream. Latency-sensitive (§4.8).
	GetAudioBufferStats() (queuedFrames int)
}

// Session is the narrow interface the engine drives. An implementation
// wraps the actual streaming-service client library; this system
// ships only a fake for tests and the Unimplemented placeholder, per
// the out-of-scope boundary.
type Session interface {
	// Login begins authentication. Callbacks.LoggedIn reports the
	// result asynchronously.
	Login(ctx context.Context, creds Credentials) error
	// ProcessEvents processes the session's pending events once and
	// returns the next-timeout hint in milliseconds. The engine calls it
	// repeatedly until the hint becomes non-zero, per §4.6's session
	// pump.
	ProcessEvents() (nextTimeoutMs int)

	// PlayTrack begins loading and playing trackURI.
	PlayTrack(trackURI string) error
	// Resume resumes a paused, already-loaded track.
	Resume() error
	// Pause pauses the currently loaded track.
	Pause() error
	// Unload releases the currently loaded track handle.
	Unload() error

	// GetCover resolves cover-art for (trackID, coverID), invoking
	// resultFn exactly once with the base64-encoded JPEG bytes or an
	// error, per §4.9. May call resultFn synchronously or from a
	// session-internal thread.
	GetCover(trackID, coverID string, resultFn func(jpegBase64 string, err error))

	// Close releases the session and any handles it still holds.
	Close() error
}
