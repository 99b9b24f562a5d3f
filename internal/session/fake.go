package session

import (
	"context"
	"sync"
)

// Fake is an in-memory Session used by engine tests. It records calls
// and lets a test script drive callbacks synchronously; there is no
// background thread.
type Fake struct {
	mu sync.Mutex

	cb Callbacks

	LoginCalls []Credentials
	LoginErr   error

	Playing     string
	PlayTrackErr error
	ResumeErr    error
	PauseErr     error
	UnloadErr    error

	CoverResults map[string]struct {
		Data string
		Err  error
	}

	Closed bool
}

// NewFake creates a Fake bound to cb, the callback surface it will
// invoke in response to driven operations.
func NewFake(cb Callbacks) *Fake {
	return &Fake{cb: cb}
}

func (f *Fake) Login(ctx context.Context, creds Credentials) error {
	f.mu.Lock()
	f.LoginCalls = append(f.LoginCalls, creds)
	err := f.LoginErr
	f.mu.Unlock()
	return err
}

// DeliverLoggedIn lets a test simulate the asynchronous login-result
// callback.
func (f *Fake) DeliverLoggedIn(err error) {
	f.cb.LoggedIn(err)
}

// ProcessEvents returns -1 (no further events pending), matching
// Unimplemented and avoiding an infinite loop in anything that polls
// ProcessEvents until it returns a non-zero timeout hint.
func (f *Fake) ProcessEvents() int { return -1 }

func (f *Fake) PlayTrack(trackURI string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlayTrackErr != nil {
		return f.PlayTrackErr
	}
	f.Playing = trackURI
	return nil
}

func (f *Fake) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ResumeErr
}

func (f *Fake) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PauseErr
}

func (f *Fake) Unload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Playing = ""
	return f.UnloadErr
}

func (f *Fake) GetCover(trackID, coverID string, resultFn func(string, error)) {
	f.mu.Lock()
	res, ok := f.CoverResults[trackID+"/"+coverID]
	f.mu.Unlock()
	if !ok {
		resultFn("", errCoverNotFound)
		return
	}
	resultFn(res.Data, res.Err)
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// DeliverStartPlayback lets a test simulate the start-playback
// callback for whatever track is currently loaded.
func (f *Fake) DeliverStartPlayback() { f.cb.StartPlayback() }

// DeliverEndOfTrack lets a test simulate natural end-of-track.
func (f *Fake) DeliverEndOfTrack() { f.cb.EndOfTrack() }

// DeliverMusic lets a test push PCM frames through the callback
// surface, exactly as the real session's delivery thread would.
func (f *Fake) DeliverMusic(frames []int16) { f.cb.MusicDelivery(frames) }

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errCoverNotFound = fakeErr("cover not found")
