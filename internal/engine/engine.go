// Package engine implements the playback orchestration engine: the
// single-owner state machine that drives the streaming session,
// mirrors its catalog, runs continued playback, and bridges PCM
// delivery into the audio sink.
package engine

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bebac/spotihifi/internal/audiosink"
	"github.com/bebac/spotihifi/internal/catalog"
	"github.com/bebac/spotihifi/internal/cmdqueue"
	"github.com/bebac/spotihifi/internal/selector"
	"github.com/bebac/spotihifi/internal/session"
	"github.com/bebac/spotihifi/internal/trackstat"
)

// popTimeout bounds how long the engine's command loop blocks in Pop
// before re-checking the running flag.
const popTimeout = 2500 * time.Millisecond

const trackURIPrefix = "spotify:track:"

// trackState is the playback state machine's current state.
type trackState int

const (
	stateNoTrack trackState = iota
	stateLoading
	statePlaying
	statePaused
)

func (s trackState) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case statePlaying:
		return "playing"
	case statePaused:
		return "paused"
	default:
		return "no_track"
	}
}

// SinkFactory builds and opens a fresh audio sink on demand. The
// engine calls it once per playback session (i.e. once between a
// no_track->loading transition and the matching stop()).
type SinkFactory func() (*audiosink.Sink, error)

// Engine owns the streaming session, the local catalog mirror, the
// continued-playback selector, and the track state machine. All
// mutation happens on the single goroutine that calls Run.
type Engine struct {
	queue  *cmdqueue.Queue
	logger *log.Logger

	sess        session.Session
	sinkFactory SinkFactory
	sinkPtr     atomic.Pointer[audiosink.Sink]

	catalog  *catalog.Catalog
	stats    *trackstat.Store
	selector *selector.Selector

	trackPlaying atomic.Bool
	running      atomic.Bool

	state      trackState
	currentURI string
	playQueue  []string

	observers []Observer
	lastEvent *PlaybackEvent

	done chan struct{}
}

// New creates an Engine around a not-yet-logged-in session built by
// sessionFactory, which receives the callback bridge to wire into the
// session it constructs.
func New(
	sessionFactory func(*cmdqueue.Queue, session.EngineCallbacks, *atomic.Bool, func() *audiosink.Sink) session.Session,
	sinkFactory SinkFactory,
	cat *catalog.Catalog,
	stats *trackstat.Store,
	sel *selector.Selector,
	logger *log.Logger,
) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		queue:       cmdqueue.New(),
		logger:      logger,
		sinkFactory: sinkFactory,
		catalog:     cat,
		stats:       stats,
		selector:    sel,
		state:       stateNoTrack,
		done:        make(chan struct{}),
	}
	e.running.Store(true)
	e.sess = sessionFactory(e.queue, e, &e.trackPlaying, e.currentSink)
	return e
}

func (e *Engine) currentSink() *audiosink.Sink { return e.sinkPtr.Load() }

// Queue exposes the engine's command queue so a Bridge constructed
// outside New can thunk onto it.
func (e *Engine) Queue() *cmdqueue.Queue { return e.queue }

// Run drives the engine's command queue until Shutdown has been
// called and the terminal closure has executed. Intended to run in
// its own goroutine.
func (e *Engine) Run() {
	defer close(e.done)
	for {
		cmd := e.queue.Pop(popTimeout, e.idleTick)
		if cmd == nil {
			break
		}
		cmd()
		if !e.running.Load() {
			break
		}
	}
	if sink := e.currentSink(); sink != nil {
		sink.Close()
	}
	if e.sess != nil {
		e.sess.Close()
	}
}

// Wait blocks until Run has returned.
func (e *Engine) Wait() { <-e.done }

func (e *Engine) do(fn func() error) error {
	errCh := make(chan error, 1)
	e.queue.Push(func() { errCh <- fn() })
	return <-errCh
}

func doSync[T any](e *Engine, fn func() T) T {
	ch := make(chan T, 1)
	e.queue.Push(func() { ch <- fn() })
	return <-ch
}

// Login initiates session authentication. Its asynchronous result
// arrives via the LoggedIn callback.
func (e *Engine) Login(ctx context.Context, creds session.Credentials) error {
	return e.do(func() error { return e.sess.Login(ctx, creds) })
}

// Play resumes a paused track, or starts the next one from the queues.
func (e *Engine) Play() error {
	return e.do(e.play)
}

// PlayURI appends uri to the explicit play queue, starting playback
// immediately if idle.
func (e *Engine) PlayURI(uri string) error {
	return e.do(func() error { return e.playURI(uri) })
}

// Pause pauses the currently loaded track.
func (e *Engine) Pause() error {
	return e.do(e.pause)
}

// Skip unloads the current track, bumps its skip count, and advances.
func (e *Engine) Skip() error {
	return e.do(e.skip)
}

// Stop unloads the current track and releases the audio sink.
func (e *Engine) Stop() error {
	return e.do(e.stop)
}

// GetTracks implements the sync contract (§4.3): callerIncarnation
// mismatch returns the full track list, match returns counters only.
func (e *Engine) GetTracks(callerIncarnation string) catalog.SyncResult {
	return doSync(e, func() catalog.SyncResult { return e.catalog.Sync(callerIncarnation) })
}

// CoverResult is the asynchronous outcome of GetCover.
type CoverResult struct {
	JPEGBase64 string
	Err        error
}

// GetCover resolves cover art for (trackID, coverID) and returns a
// channel that receives exactly one CoverResult.
func (e *Engine) GetCover(trackID, coverID string) <-chan CoverResult {
	resultCh := make(chan CoverResult, 1)
	e.queue.Push(func() {
		e.sess.GetCover(trackID, coverID, func(b64 string, err error) {
			resultCh <- CoverResult{JPEGBase64: b64, Err: err}
		})
	})
	return resultCh
}

// ObserverAttach registers obs and, if a playback event has already
// been published, replays it immediately.
func (e *Engine) ObserverAttach(obs Observer) {
	e.queue.Push(func() {
		e.observers = append(e.observers, obs)
		if e.lastEvent != nil {
			obs.PlayerStateEvent(*e.lastEvent)
		}
	})
}

// ObserverDetach unregisters obs.
func (e *Engine) ObserverDetach(obs Observer) {
	e.queue.Push(func() {
		for i, o := range e.observers {
			if o == obs {
				e.observers = append(e.observers[:i], e.observers[i+1:]...)
				return
			}
		}
	})
}

// SetContinuedPlaybackFilter replaces the continued-playback
// selector's filter, e.g. in response to play({playlist:...}).
func (e *Engine) SetContinuedPlaybackFilter(f selector.Filter) error {
	return e.do(func() error {
		e.selector.SetFilter(e.catalog, f)
		return nil
	})
}

// Shutdown enqueues the terminal closure: it clears playback state,
// persists stats to statsFilename if non-empty, and flips the running
// flag so Run exits after this closure completes.
func (e *Engine) Shutdown(statsFilename string) {
	e.queue.Push(func() {
		e.trackPlaying.Store(false)
		if statsFilename != "" {
			if err := trackstat.Save(e.stats, statsFilename); err != nil {
				e.logger.Error("failed to persist track stats", "err", err)
			}
		}
		e.running.Store(false)
	})
}

func trackIDFromURI(uri string) string {
	return strings.TrimPrefix(uri, trackURIPrefix)
}

// idleTick runs on every idle tick of the command queue (§4.5): it
// refills the continued-playback selector and, if the engine is
// currently idle, tries to start playback from whatever the refill
// turned up.
func (e *Engine) idleTick() {
	e.selector.Refill(e.catalog)
	if e.state == stateNoTrack {
		if err := e.playNextFromQueue(); err != nil {
			e.logger.Error("failed to start next track on idle refill", "err", err)
		}
	}
}

func (e *Engine) publish(state string) {
	var tr *catalog.Track
	if id := trackIDFromURI(e.currentURI); id != "" {
		tr, _ = e.catalog.Track(id)
	}
	ev := PlaybackEvent{State: state, Track: tr}
	e.lastEvent = &ev
	for _, obs := range e.observers {
		obs.PlayerStateEvent(ev)
	}
}

func (e *Engine) play() error {
	switch e.state {
	case statePaused:
		if err := e.sess.Resume(); err != nil {
			return err
		}
		e.state = statePlaying
		e.trackPlaying.Store(true)
		if sink := e.currentSink(); sink != nil {
			sink.SetPlaying(true)
		}
		e.publish("playing")
		return nil
	case stateNoTrack:
		return e.playNextFromQueue()
	default:
		return nil
	}
}

func (e *Engine) playURI(uri string) error {
	e.playQueue = append(e.playQueue, uri)
	if e.state == stateNoTrack {
		return e.playNextFromQueue()
	}
	return nil
}

// playNextFromQueue prefers the explicit play queue; if empty, it
// falls back to the continued-playback selector, refilling it first in
// case candidates have become available since it last drained. If both
// are empty it publishes stopped and drops the sink.
func (e *Engine) playNextFromQueue() error {
	var uri string
	switch {
	case len(e.playQueue) > 0:
		uri, e.playQueue = e.playQueue[0], e.playQueue[1:]
	default:
		e.selector.Refill(e.catalog)
		if e.selector.Len() == 0 {
			e.publish("stopped")
			e.dropSink()
			e.state = stateNoTrack
			return nil
		}
		id, _ := e.selector.Next()
		uri = trackURIPrefix + id
	}

	if e.currentSink() == nil {
		sink, err := e.sinkFactory()
		if err != nil {
			return err
		}
		e.sinkPtr.Store(sink)
	}

	e.state = stateLoading
	e.currentURI = uri
	return e.sess.PlayTrack(uri)
}

func (e *Engine) pause() error {
	if e.state != statePlaying {
		return nil
	}
	if err := e.sess.Pause(); err != nil {
		return err
	}
	e.trackPlaying.Store(false)
	if sink := e.currentSink(); sink != nil {
		sink.SetPlaying(false)
	}
	e.state = statePaused
	e.publish("paused")
	return nil
}

func (e *Engine) skip() error {
	if e.state == stateNoTrack {
		return nil
	}
	trackID := trackIDFromURI(e.currentURI)

	e.trackPlaying.Store(false)
	if sink := e.currentSink(); sink != nil {
		sink.SetPlaying(false)
		sink.Flush()
	}
	if err := e.sess.Unload(); err != nil {
		return err
	}
	if trackID != "" {
		st := e.stats.IncreaseSkipCount(trackID)
		e.catalog.UpdateRating(trackID, st.Rating)
	}
	e.state = stateNoTrack
	e.publish("skip")

	return e.playNextFromQueue()
}

func (e *Engine) stop() error {
	wasActive := e.state != stateNoTrack
	e.trackPlaying.Store(false)
	if wasActive {
		if err := e.sess.Unload(); err != nil {
			e.logger.Error("failed to unload track on stop", "err", err)
		}
	}
	e.playQueue = nil
	e.state = stateNoTrack
	e.dropSink()
	e.publish("stopped")
	return nil
}

func (e *Engine) dropSink() {
	if sink := e.currentSink(); sink != nil {
		sink.Close()
		e.sinkPtr.Store(nil)
	}
}

// LoggedIn implements session.EngineCallbacks.
func (e *Engine) LoggedIn(err error) {
	if err != nil {
		e.logger.Error("login failed", "err", err)
		return
	}
	e.logger.Info("logged in")
}

// MetadataUpdated implements session.EngineCallbacks. PlayTrack already
// folds link creation and metadata resolution into one call in this
// system's Session boundary, so there is no play-flow step gated on
// this callback; it exists for catalog-refresh hooks a fuller session
// implementation might need.
func (e *Engine) MetadataUpdated() {
	e.logger.Debug("session metadata updated")
}

// NotifyMainThread implements session.EngineCallbacks: it runs the
// session's event processor until its next-timeout hint is non-zero,
// per the session pump design (§4.6).
func (e *Engine) NotifyMainThread() {
	for {
		if timeout := e.sess.ProcessEvents(); timeout != 0 {
			return
		}
	}
}

// PlaylistContainerLoaded implements session.EngineCallbacks.
func (e *Engine) PlaylistContainerLoaded(playlists []session.PlaylistSnapshot) {
	for _, pl := range playlists {
		e.catalog.ImportPlaylist(pl.Name, toTrackInputs(pl.Tracks))
	}
	e.seedRatings()
	e.selector.Refill(e.catalog)
}

// PlaylistTracksAdded implements session.EngineCallbacks.
func (e *Engine) PlaylistTracksAdded(name string, tracks []session.TrackMeta, position int) {
	e.catalog.PlaylistTracksAdded(name, toTrackInputs(tracks), position)
	e.seedRatings()
	e.selector.Refill(e.catalog)
}

// PlaylistTracksRemoved implements session.EngineCallbacks.
func (e *Engine) PlaylistTracksRemoved(name string, positions []int) {
	if _, err := e.catalog.PlaylistTracksRemoved(name, positions); err != nil {
		e.logger.Warn("playlist tracks removed for unknown playlist", "playlist", name, "err", err)
	}
}

// StartPlayback implements session.EngineCallbacks.
func (e *Engine) StartPlayback() {
	if e.state != stateLoading {
		return
	}
	e.state = statePlaying
	e.trackPlaying.Store(true)
	if sink := e.currentSink(); sink != nil {
		sink.SetPlaying(true)
	}
	e.publish("playing")
}

// EndOfTrack implements session.EngineCallbacks.
func (e *Engine) EndOfTrack() {
	trackID := trackIDFromURI(e.currentURI)

	e.trackPlaying.Store(false)
	if sink := e.currentSink(); sink != nil {
		sink.SetPlaying(false)
	}
	if err := e.sess.Unload(); err != nil {
		e.logger.Error("failed to unload track at end of track", "err", err)
	}
	if trackID != "" {
		st := e.stats.IncreasePlayCount(trackID)
		e.catalog.UpdateRating(trackID, st.Rating)
	}
	e.state = stateNoTrack

	if err := e.playNextFromQueue(); err != nil {
		e.logger.Error("failed to start next track", "err", err)
	}
}

func (e *Engine) seedRatings() {
	for _, t := range e.catalog.AllTracks() {
		if t.Rating != catalog.UnratedRating {
			continue
		}
		if st := e.stats.Get(t.TrackID); st.PlayCount > 0 || st.SkipCount > 0 {
			e.catalog.UpdateRating(t.TrackID, st.Rating)
		}
	}
}

func toTrackInputs(metas []session.TrackMeta) []catalog.TrackInput {
	out := make([]catalog.TrackInput, len(metas))
	for i, m := range metas {
		out[i] = catalog.TrackInput{
			TrackID:     m.TrackID,
			Title:       m.Title,
			TrackNumber: m.TrackNumber,
			DurationMs:  m.DurationMs,
			Artist:      m.Artist,
			Album:       m.Album,
			AlbumID:     m.AlbumID,
			CoverID:     m.CoverID,
			Available:   m.Available,
		}
	}
	return out
}
