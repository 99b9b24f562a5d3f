// Package catalog maintains the in-memory index of the streaming
// service's tracks and playlists. A Catalog is owned exclusively by the
// playback engine's single command-loop goroutine; it is not safe for
// concurrent use from multiple goroutines without external
// serialization, mirroring the "engine thread only mutates" rule of the
// system this implements.
package catalog

import (
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// ErrPlaylistNotFound is returned when an operation references a
// playlist name that does not exist in the catalog.
var ErrPlaylistNotFound = errors.New("playlist not found")

// UnratedRating is the sentinel Rating value a track carries until the
// engine has recorded an actual play/skip-derived rating for it. The
// continued-playback selector's "unrated" filter matches on this value.
const UnratedRating = -1.0

// Track is a single entry in the catalog, keyed uniquely by TrackID.
type Track struct {
	TrackID     string
	Title       string
	TrackNumber int
	DurationMs  int
	Artist      string
	Album       string
	AlbumID     string
	CoverID     string
	// Rating mirrors the value held in the track stat store. It is
	// updated by the engine whenever a stat mutation occurs so that a
	// catalog snapshot reflects current ratings without a stats lookup.
	Rating float64

	playlists map[string]struct{}
}

// Playlists returns the sorted names of playlists that currently
// reference this track.
func (t *Track) Playlists() []string {
	names := make([]string, 0, len(t.playlists))
	for name := range t.playlists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InPlaylist reports whether the track currently belongs to playlist name.
func (t *Track) InPlaylist(name string) bool {
	_, ok := t.playlists[name]
	return ok
}

// TrackInput carries the metadata needed to create or merge a track
// entry, e.g. from a playlist-tracks-added callback.
type TrackInput struct {
	TrackID     string
	Title       string
	TrackNumber int
	DurationMs  int
	Artist      string
	Album       string
	AlbumID     string
	CoverID     string
	// Available mirrors the service's track availability flag. A track
	// with Available false is skipped and never enters the catalog.
	Available bool
}

// Playlist is a named, ordered sequence of track references.
type Playlist struct {
	Name   string
	Tracks []*Track
}

// Catalog owns the Track map and Playlist map, along with the version
// counters clients use to decide whether they need a full resync.
type Catalog struct {
	incarnation string
	transaction int64

	tracks    map[string]*Track
	playlists map[string]*Playlist
}

// New creates an empty Catalog with a fresh incarnation token.
// The incarnation is stable for the lifetime of this Catalog value and
// changes whenever a new Catalog is constructed, e.g. across engine
// restarts.
func New() *Catalog {
	return &Catalog{
		incarnation: strconv.FormatInt(time.Now().UnixNano(), 10),
		tracks:      make(map[string]*Track),
		playlists:   make(map[string]*Playlist),
	}
}

// Incarnation returns the catalog instance's stable version token.
func (c *Catalog) Incarnation() string { return c.incarnation }

// Transaction returns the current mutation counter.
func (c *Catalog) Transaction() int64 { return c.transaction }

// SyncResult is the result of a sync request against the catalog.
type SyncResult struct {
	Incarnation string
	Transaction int64
	// Tracks is nil unless the caller's incarnation differs from the
	// catalog's, in which case it holds every track currently known.
	Tracks []*Track
}

// Sync implements the get_tracks contract: a caller whose incarnation
// does not match receives a full track list; a caller whose incarnation
// matches gets only the version counters.
func (c *Catalog) Sync(callerIncarnation string) SyncResult {
	res := SyncResult{
		Incarnation: c.incarnation,
		Transaction: c.transaction,
	}
	if callerIncarnation != c.incarnation {
		res.Tracks = c.AllTracks()
	}
	return res
}

// AllTracks returns every track currently in the catalog, in an
// arbitrary but stable (sorted by track id) order.
func (c *Catalog) AllTracks() []*Track {
	out := make([]*Track, 0, len(c.tracks))
	for _, t := range c.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out
}

// Track looks up a track by id.
func (c *Catalog) Track(trackID string) (*Track, bool) {
	t, ok := c.tracks[trackID]
	return t, ok
}

// Playlist looks up a playlist by name.
func (c *Catalog) Playlist(name string) (*Playlist, bool) {
	pl, ok := c.playlists[name]
	return pl, ok
}

// PlaylistNames returns the sorted names of all known playlists.
func (c *Catalog) PlaylistNames() []string {
	names := make([]string, 0, len(c.playlists))
	for name := range c.playlists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) ensurePlaylist(name string) *Playlist {
	pl, ok := c.playlists[name]
	if !ok {
		pl = &Playlist{Name: name}
		c.playlists[name] = pl
	}
	return pl
}

// getOrCreateTrack returns the existing Track for in.TrackID, or creates
// a new one from in's metadata. Playlist membership is left to the
// caller.
func (c *Catalog) getOrCreateTrack(in TrackInput) *Track {
	if t, ok := c.tracks[in.TrackID]; ok {
		return t
	}
	t := &Track{
		TrackID:     in.TrackID,
		Title:       in.Title,
		TrackNumber: in.TrackNumber,
		DurationMs:  in.DurationMs,
		Artist:      in.Artist,
		Album:       in.Album,
		AlbumID:     in.AlbumID,
		CoverID:     in.CoverID,
		Rating:      UnratedRating,
		playlists:   make(map[string]struct{}),
	}
	c.tracks[in.TrackID] = t
	return t
}

// PlaylistTracksAdded inserts tracks into playlist name at position,
// creating the playlist if it does not yet exist. Tracks whose
// TrackID is already known merge playlist membership into the existing
// catalog entry rather than replacing it. Tracks not currently
// Available are skipped entirely and do not enter the catalog.
func (c *Catalog) PlaylistTracksAdded(name string, tracks []TrackInput, position int) {
	pl := c.ensurePlaylist(name)

	if position < 0 {
		position = 0
	}
	if position > len(pl.Tracks) {
		position = len(pl.Tracks)
	}

	added := make([]*Track, 0, len(tracks))
	for _, in := range tracks {
		if !in.Available {
			continue
		}
		t := c.getOrCreateTrack(in)
		t.playlists[name] = struct{}{}
		added = append(added, t)
	}

	if len(added) == 0 {
		return
	}

	pl.Tracks = append(pl.Tracks[:position:position], append(added, pl.Tracks[position:]...)...)
	c.transaction++
}

// PlaylistTracksRemoved removes the entries at positions from playlist
// name. Positions refer to the playlist as it was before this call; they
// are applied in descending order. Out-of-range positions are skipped
// and reported via skipped. A track loses its membership of name only
// once no entry of the playlist references it any more.
// Removing a track from one playlist does not remove it from the
// catalog even if it becomes a member of no playlist.
func (c *Catalog) PlaylistTracksRemoved(name string, positions []int) (skipped []int, err error) {
	pl, ok := c.playlists[name]
	if !ok {
		return nil, errors.Wrapf(ErrPlaylistNotFound, "playlist %q", name)
	}

	sorted := append([]int(nil), positions...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	for _, pos := range sorted {
		if pos < 0 || pos >= len(pl.Tracks) {
			skipped = append(skipped, pos)
			continue
		}
		t := pl.Tracks[pos]
		pl.Tracks = append(pl.Tracks[:pos], pl.Tracks[pos+1:]...)
		stillListed := false
		for _, other := range pl.Tracks {
			if other == t {
				stillListed = true
				break
			}
		}
		if !stillListed {
			delete(t.playlists, name)
		}
	}
	c.transaction++

	return skipped, nil
}

// ImportPlaylist materializes a full playlist in one shot, e.g. for the
// initial "Starred" import or a freshly loaded playlist container entry.
// Tracks that are not Available are skipped and never enter the catalog.
func (c *Catalog) ImportPlaylist(name string, tracks []TrackInput) {
	c.PlaylistTracksAdded(name, tracks, 0)
}

// UpdateRating sets the cached rating on a track, mirroring a stats
// mutation. It is a no-op if the track is not present.
func (c *Catalog) UpdateRating(trackID string, rating float64) {
	if t, ok := c.tracks[trackID]; ok {
		t.Rating = rating
	}
}
