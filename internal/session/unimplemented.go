package session

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotConfigured is the error every Unimplemented operation fails
// with (Login, PlayTrack, Resume, Pause, Unload, and GetCover via its
// result callback). The streaming-service library itself is out of
// scope for this system (§1: "treated as an opaque session with a
// fixed callback surface"); Unimplemented lets the daemon start up and
// serve its wire protocol without a real Session implementation, which
// would be supplied at the integration point in cmd/spotihifid, and
// without this package depending on any concrete streaming SDK.
var ErrNotConfigured = errors.New("streaming session not configured")

// Unimplemented is a Session that fails every operation; ProcessEvents
// reports -1 and Close succeeds. It is the
// default session used when no concrete implementation has been wired
// in.
type Unimplemented struct{}

func (Unimplemented) Login(ctx context.Context, creds Credentials) error { return ErrNotConfigured }
func (Unimplemented) ProcessEvents() (nextTimeoutMs int)                { return -1 }
func (Unimplemented) PlayTrack(trackURI string) error                   { return ErrNotConfigured }
func (Unimplemented) Resume() error                                     { return ErrNotConfigured }
func (Unimplemented) Pause() error                                      { return ErrNotConfigured }
func (Unimplemented) Unload() error                                     { return ErrNotConfigured }

func (Unimplemented) GetCover(trackID, coverID string, resultFn func(string, error)) {
	resultFn("", ErrNotConfigured)
}

func (Unimplemented) Close() error { return nil }
