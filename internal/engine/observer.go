package engine

import "github.com/bebac/spotihifi/internal/catalog"

// PlaybackEvent is what the engine fans out to observers whenever
// player state changes: "playing", "paused", "skip", or "stopped",
// together with the track it concerns, if any.
type PlaybackEvent struct {
	State string
	Track *catalog.Track
}

// Observer receives playback events on the engine's own goroutine. It
// must not block: the engine thread stalls for the duration of the
// call.
type Observer interface {
	PlayerStateEvent(event PlaybackEvent)
}
