package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bebac/spotihifi/internal/audiosink"
	"github.com/bebac/spotihifi/internal/catalog"
	"github.com/bebac/spotihifi/internal/cmdqueue"
	"github.com/bebac/spotihifi/internal/selector"
	"github.com/bebac/spotihifi/internal/session"
	"github.com/bebac/spotihifi/internal/trackstat"
)

type nullDevice struct{}

func (nullDevice) Open(string) error               { return nil }
func (nullDevice) Write(f []int16) (int, error)     { return len(f) / 2, nil }
func (nullDevice) Close() error                     { return nil }

type recordingObserver struct {
	events chan PlaybackEvent
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{events: make(chan PlaybackEvent, 16)}
}

func (r *recordingObserver) PlayerStateEvent(ev PlaybackEvent) {
	r.events <- ev
}

func (r *recordingObserver) next(t *testing.T) PlaybackEvent {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for playback event")
		return PlaybackEvent{}
	}
}

// testHarness wires an Engine to a session.Fake via the same Bridge a
// real session would be driven through.
type testHarness struct {
	t      *testing.T
	engine *Engine
	fake   *session.Fake
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	cat := catalog.New()
	stats := trackstat.NewStore()
	sel := selector.New()

	var fake *session.Fake
	sessionFactory := func(queue *cmdqueue.Queue, cb session.EngineCallbacks, playing *atomic.Bool, sink func() *audiosink.Sink) session.Session {
		bridge := session.NewBridge(queue, cb, playing, sink)
		fake = session.NewFake(bridge)
		return fake
	}
	sinkFactory := func() (*audiosink.Sink, error) {
		s := audiosink.New(nullDevice{}, nil)
		if err := s.Open(""); err != nil {
			return nil, err
		}
		go s.Run()
		return s, nil
	}

	e := New(sessionFactory, sinkFactory, cat, stats, sel, nil)
	go e.Run()
	t.Cleanup(func() {
		e.Shutdown("")
		e.Wait()
	})

	return &testHarness{t: t, engine: e, fake: fake}
}

func (h *testHarness) seedTrack(trackID, playlist string) {
	h.engine.catalog.ImportPlaylist(playlist, []catalog.TrackInput{
		{TrackID: trackID, Title: "title-" + trackID, Available: true},
	})
	h.engine.selector.Refill(h.engine.catalog)
}

func TestPlayURIStartsLoadingThenPlaying(t *testing.T) {
	h := newTestHarness(t)
	obs := newRecordingObserver()
	h.engine.ObserverAttach(obs)

	require.NoError(t, h.engine.PlayURI("spotify:track:abc"))
	h.fake.DeliverStartPlayback()

	ev := obs.next(t)
	assert.Equal(t, "playing", ev.State)
}

func TestPauseThenResume(t *testing.T) {
	h := newTestHarness(t)
	obs := newRecordingObserver()
	h.engine.ObserverAttach(obs)

	require.NoError(t, h.engine.PlayURI("spotify:track:abc"))
	h.fake.DeliverStartPlayback()
	obs.next(t) // playing

	require.NoError(t, h.engine.Pause())
	assert.Equal(t, "paused", obs.next(t).State)

	require.NoError(t, h.engine.Play())
	assert.Equal(t, "playing", obs.next(t).State)
}

func TestSkipIncrementsSkipCount(t *testing.T) {
	h := newTestHarness(t)
	h.seedTrack("abc", "PL")

	require.NoError(t, h.engine.PlayURI("spotify:track:abc"))
	h.fake.DeliverStartPlayback()

	require.NoError(t, h.engine.Skip())

	st := h.engine.stats.Get("abc")
	assert.Equal(t, uint(1), st.SkipCount)
}

func TestEndOfTrackIncrementsPlayCount(t *testing.T) {
	h := newTestHarness(t)
	h.seedTrack("abc", "PL")

	require.NoError(t, h.engine.PlayURI("spotify:track:abc"))
	h.fake.DeliverStartPlayback()
	h.fake.DeliverEndOfTrack()

	// the queue is FIFO and single-threaded: this synchronous call only
	// returns once DeliverEndOfTrack's bridged closure has already run.
	h.engine.GetTracks("flush")

	assert.Equal(t, uint(1), h.engine.stats.Get("abc").PlayCount)
}

func TestStopPublishesStoppedAndDropsSink(t *testing.T) {
	h := newTestHarness(t)
	obs := newRecordingObserver()
	h.engine.ObserverAttach(obs)

	require.NoError(t, h.engine.PlayURI("spotify:track:abc"))
	h.fake.DeliverStartPlayback()
	obs.next(t)

	require.NoError(t, h.engine.Stop())
	assert.Equal(t, "stopped", obs.next(t).State)
	assert.Nil(t, h.engine.currentSink())
}

func TestObserverAttachReplaysLastEvent(t *testing.T) {
	h := newTestHarness(t)
	require.NoError(t, h.engine.PlayURI("spotify:track:abc"))
	h.fake.DeliverStartPlayback()

	// the queue is FIFO and single-threaded, so by the time this
	// synchronous call returns, DeliverStartPlayback's bridged closure
	// (pushed earlier) has already run.
	h.engine.GetTracks("flush")

	obs := newRecordingObserver()
	h.engine.ObserverAttach(obs)
	ev := obs.next(t)
	assert.Equal(t, "playing", ev.State)
}

func TestGetTracksSyncIncarnationAndTransaction(t *testing.T) {
	h := newTestHarness(t)
	h.seedTrack("abc", "PL")

	res := h.engine.GetTracks("stale")
	assert.NotEmpty(t, res.Tracks)
	incarnation := res.Incarnation

	res2 := h.engine.GetTracks(incarnation)
	assert.Nil(t, res2.Tracks)
	assert.Equal(t, incarnation, res2.Incarnation)
}

func TestLoginForwardsCredentials(t *testing.T) {
	h := newTestHarness(t)
	require.NoError(t, h.engine.Login(context.Background(), session.Credentials{Username: "u", Password: "p"}))
	require.Len(t, h.fake.LoginCalls, 1)
	assert.Equal(t, "u", h.fake.LoginCalls[0].Username)
}
