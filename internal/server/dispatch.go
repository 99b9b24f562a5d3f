package server

import (
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/bebac/spotihifi/internal/engine"
	"github.com/bebac/spotihifi/internal/rpcproto"
	"github.com/bebac/spotihifi/internal/selector"
)

// dispatch parses one request frame body and returns the Response to
// send back. A malformed request never aborts the connection: it always
// yields a Response with an appropriate error code, which the
// connection logs at INFO before sending it on the still-open
// connection.
func dispatch(eng *engine.Engine, body []byte) rpcproto.Response {
	var req rpcproto.Request
	if err := json.Unmarshal(body, &req); err != nil || !req.Valid() {
		return rpcproto.NewError(req.ID, rpcproto.ErrCodeInvalidRequest, "invalid request")
	}

	switch req.Method {
	case "sync":
		return dispatchSync(eng, req)
	case "play":
		return dispatchPlay(eng, req)
	case "pause":
		return dispatchSimple(req, eng.Pause)
	case "skip":
		return dispatchSimple(req, eng.Skip)
	case "stop":
		return dispatchSimple(req, eng.Stop)
	case "queue":
		return dispatchQueue(eng, req)
	case "get-cover":
		return dispatchGetCover(eng, req)
	default:
		return rpcproto.NewError(req.ID, rpcproto.ErrCodeMethodNotFound, "method not found: "+req.Method)
	}
}

func dispatchSimple(req rpcproto.Request, fn func() error) rpcproto.Response {
	if err := fn(); err != nil {
		return rpcproto.NewError(req.ID, rpcproto.ErrCodeApplication, err.Error())
	}
	return rpcproto.NewResult(req.ID, "ok")
}

func dispatchSync(eng *engine.Engine, req rpcproto.Request) rpcproto.Response {
	var params rpcproto.SyncParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return rpcproto.NewError(req.ID, rpcproto.ErrCodeInvalidParams, "invalid sync params")
		}
	}

	res := eng.GetTracks(params.Incarnation)

	payloads := make([]*rpcproto.TrackPayload, 0, len(res.Tracks))
	for _, t := range res.Tracks {
		payloads = append(payloads, rpcproto.NewTrackPayload(t))
	}
	result := rpcproto.SyncResult{
		Incarnation: res.Incarnation,
		Transaction: strconv.FormatInt(res.Transaction, 10),
	}
	if res.Tracks != nil {
		result.Tracks = payloads
	}
	return rpcproto.NewResult(req.ID, result)
}

func dispatchPlay(eng *engine.Engine, req rpcproto.Request) rpcproto.Response {
	var params rpcproto.PlayParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return rpcproto.NewError(req.ID, rpcproto.ErrCodeInvalidParams, "invalid play params")
		}
	}

	if params.Playlist != nil {
		if err := eng.Stop(); err != nil {
			return rpcproto.NewError(req.ID, rpcproto.ErrCodeApplication, err.Error())
		}
		filter := selector.All()
		if *params.Playlist != "" {
			filter = selector.Playlist(*params.Playlist)
		}
		if err := eng.SetContinuedPlaybackFilter(filter); err != nil {
			return rpcproto.NewError(req.ID, rpcproto.ErrCodeApplication, err.Error())
		}
	}

	if err := eng.Play(); err != nil {
		return rpcproto.NewError(req.ID, rpcproto.ErrCodeApplication, err.Error())
	}
	return rpcproto.NewResult(req.ID, "ok")
}

func dispatchQueue(eng *engine.Engine, req rpcproto.Request) rpcproto.Response {
	var params rpcproto.QueueParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params[0] == "" {
		return rpcproto.NewError(req.ID, rpcproto.ErrCodeInvalidParams, "invalid queue params")
	}

	if err := eng.PlayURI(params[0]); err != nil {
		return rpcproto.NewError(req.ID, rpcproto.ErrCodeApplication, err.Error())
	}
	return rpcproto.NewResult(req.ID, "ok")
}

func dispatchGetCover(eng *engine.Engine, req rpcproto.Request) rpcproto.Response {
	var params rpcproto.GetCoverParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.TrackID == "" || params.CoverID == "" {
		return rpcproto.NewError(req.ID, rpcproto.ErrCodeInvalidParams, "missing track_id or cover_id")
	}

	res := <-eng.GetCover(params.TrackID, params.CoverID)
	if res.Err != nil {
		return rpcproto.NewError(req.ID, rpcproto.ErrCodeApplication, res.Err.Error())
	}
	return rpcproto.NewResult(req.ID, rpcproto.GetCoverResult{
		TrackID:     params.TrackID,
		CoverID:     params.CoverID,
		ImageFormat: "jpg",
		ImageData:   res.JPEGBase64,
	})
}
