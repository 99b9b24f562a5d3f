package rpcproto

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bebac/spotihifi/internal/catalog"
)

func TestRequestValid(t *testing.T) {
	valid := Request{JSONRPC: Version, Method: "sync"}
	assert.True(t, valid.Valid())

	assert.False(t, (&Request{Method: "sync"}).Valid())
	assert.False(t, (&Request{JSONRPC: Version}).Valid())
}

func TestRequestFromJSONMissingMethodIsInvalid(t *testing.T) {
	var r Request
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","params":{}}`), &r))
	assert.False(t, r.Valid())
}

func TestNewTrackPayloadNilTrack(t *testing.T) {
	assert.Nil(t, NewTrackPayload(nil))
}

func TestNewTrackPayloadCarriesPlaylists(t *testing.T) {
	cat := catalog.New()
	cat.PlaylistTracksAdded("PL", []catalog.TrackInput{{TrackID: "t1", Title: "T", Available: true}}, 0)
	tr, _ := cat.Track("t1")

	payload := NewTrackPayload(tr)
	assert.Equal(t, "t1", payload.TrackID)
	assert.Equal(t, []string{"PL"}, payload.Playlists)
}

func TestResponseErrorRoundTrips(t *testing.T) {
	resp := NewError(json.RawMessage(`1`), ErrCodeMethodNotFound, "method not found")
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeMethodNotFound, decoded.Error.Code)
	assert.Nil(t, decoded.Result)
}

func TestPBEventNotificationShape(t *testing.T) {
	n := NewPBEvent("playing", &TrackPayload{TrackID: "t1"})
	data, err := json.Marshal(n)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, PBEventMethod, decoded["method"])
}
