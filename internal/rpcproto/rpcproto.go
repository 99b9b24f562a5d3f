// Package rpcproto defines the JSON-RPC 2.0 message shapes exchanged
// over the client wire protocol, and the track payload carried inside
// them. Framing, transport, and dispatch live in internal/server; this
// package only knows about message shapes.
package rpcproto

import (
	json "github.com/goccy/go-json"

	"github.com/bebac/spotihifi/internal/catalog"
)

// Standard JSON-RPC 2.0 error codes used by this system.
const (
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	// ErrCodeApplication is used for get-cover failures (§4.9), which
	// the spec assigns a fixed code of -1 rather than a standard one.
	ErrCodeApplication = -1
)

// Version is the fixed jsonrpc field value this system speaks.
const Version = "2.0"

// Request is an incoming client call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Valid reports whether r carries the fields a conforming request must
// have: a matching jsonrpc version and a non-empty method.
func (r *Request) Valid() bool {
	return r.JSONRPC == Version && r.Method != ""
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response answers a Request, carrying exactly one of Result or Error.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// NewResult builds a successful Response.
func NewResult(id json.RawMessage, result interface{}) Response {
	return Response{JSONRPC: Version, ID: id, Result: result}
}

// NewError builds a failed Response.
func NewError(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: message}}
}

// Notification is a server-initiated message with no id and no
// response expected, e.g. the pb-event playback notification.
type Notification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// PBEventMethod is the notification method name for playback state
// changes.
const PBEventMethod = "pb-event"

// PBEventParams is the params object of a pb-event notification.
type PBEventParams struct {
	State string      `json:"state"`
	Track *TrackPayload `json:"track,omitempty"`
}

// NewPBEvent builds a pb-event Notification.
func NewPBEvent(state string, track *TrackPayload) Notification {
	return Notification{JSONRPC: Version, Method: PBEventMethod, Params: PBEventParams{State: state, Track: track}}
}

// TrackPayload is the wire shape of a Track, per §6.
type TrackPayload struct {
	TrackID     string   `json:"track_id"`
	Title       string   `json:"title"`
	TrackNumber int      `json:"track_number"`
	Duration    int      `json:"duration"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album"`
	AlbumID     string   `json:"album_id"`
	Playlists   []string `json:"playlists"`
}

// NewTrackPayload converts a catalog.Track into its wire shape.
func NewTrackPayload(t *catalog.Track) *TrackPayload {
	if t == nil {
		return nil
	}
	return &TrackPayload{
		TrackID:     t.TrackID,
		Title:       t.Title,
		TrackNumber: t.TrackNumber,
		Duration:    t.DurationMs,
		Artist:      t.Artist,
		Album:       t.Album,
		AlbumID:     t.AlbumID,
		Playlists:   t.Playlists(),
	}
}

// SyncParams is the params object of a sync request. Both fields are
// optional string-encoded values per §6.
type SyncParams struct {
	Incarnation string `json:"incarnation,omitempty"`
	Transaction string `json:"transaction,omitempty"`
}

// SyncResult is the result object of a sync request.
type SyncResult struct {
	Incarnation string          `json:"incarnation"`
	Transaction string          `json:"transaction"`
	Tracks      []*TrackPayload `json:"tracks,omitempty"`
}

// PlayParams is the params object of a play request.
type PlayParams struct {
	Playlist *string `json:"playlist,omitempty"`
}

// QueueParams is the params of a queue request: a single-element array
// holding the track URI.
type QueueParams [1]string

// GetCoverParams is the params object of a get-cover request.
type GetCoverParams struct {
	TrackID string `json:"track_id"`
	CoverID string `json:"cover_id"`
}

// GetCoverResult is the result object of a get-cover request.
type GetCoverResult struct {
	TrackID     string `json:"track_id"`
	CoverID     string `json:"cover_id"`
	ImageFormat string `json:"image_format"`
	ImageData   string `json:"image_data"`
}
