// Package selector implements the continued-playback selector: a short
// shuffled queue of track ids drawn from a filtered subset of the
// catalog, refilled as it drains.
package selector

import (
	"math/rand/v2"

	"github.com/bebac/spotihifi/internal/catalog"
)

// targetLength is the minimum queue length the selector tries to
// maintain on refill.
const targetLength = 5

// refillThreshold is the queue length at or below which a refill is
// triggered.
const refillThreshold = 1

// FilterKind identifies which subset of the catalog the selector draws
// candidates from.
type FilterKind int

const (
	// FilterAll draws from every track in the catalog.
	FilterAll FilterKind = iota
	// FilterPlaylist draws from tracks belonging to a named playlist.
	FilterPlaylist
	// FilterUnrated draws from tracks whose cached rating is still the
	// unrated sentinel.
	FilterUnrated
)

// Filter selects the active candidate subset.
type Filter struct {
	Kind     FilterKind
	Playlist string
}

// All is the FilterAll filter.
func All() Filter { return Filter{Kind: FilterAll} }

// Playlist is the FilterPlaylist filter for the named playlist.
func Playlist(name string) Filter { return Filter{Kind: FilterPlaylist, Playlist: name} }

// Unrated is the FilterUnrated filter.
func Unrated() Filter { return Filter{Kind: FilterUnrated} }

// Selector holds the active filter and the shuffled queue of candidate
// track ids drawn from it. It is owned by the engine's command-loop
// goroutine, same as the Catalog it reads from.
type Selector struct {
	filter Filter
	queue  []string
}

// New creates a Selector with the FilterAll filter and an empty queue.
func New() *Selector {
	return &Selector{filter: All()}
}

// SetFilter replaces the active filter, clears the queue, and forces an
// immediate refill from cat.
func (s *Selector) SetFilter(cat *catalog.Catalog, f Filter) {
	s.filter = f
	s.queue = nil
	s.Refill(cat)
}

// Filter returns the active filter.
func (s *Selector) Filter() Filter { return s.filter }

// Len returns the number of ids currently queued.
func (s *Selector) Len() int { return len(s.queue) }

// Next pops and returns the next track id, or ok=false if the queue is
// empty.
func (s *Selector) Next() (id string, ok bool) {
	if len(s.queue) == 0 {
		return "", false
	}
	id, s.queue = s.queue[0], s.queue[1:]
	return id, true
}

// Refill tops the queue back up to targetLength from cat's candidate
// set if the queue has drained to refillThreshold or below. It is a
// no-op if the queue is already above threshold.
func (s *Selector) Refill(cat *catalog.Catalog) {
	if len(s.queue) > refillThreshold {
		return
	}

	candidates := s.candidates(cat)
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	already := make(map[string]struct{}, len(s.queue))
	for _, id := range s.queue {
		already[id] = struct{}{}
	}

	for _, id := range candidates {
		if len(s.queue) >= targetLength {
			break
		}
		if _, dup := already[id]; dup {
			continue
		}
		s.queue = append(s.queue, id)
		already[id] = struct{}{}
	}
}

func (s *Selector) candidates(cat *catalog.Catalog) []string {
	var ids []string
	for _, t := range cat.AllTracks() {
		switch s.filter.Kind {
		case FilterPlaylist:
			if !t.InPlaylist(s.filter.Playlist) {
				continue
			}
		case FilterUnrated:
			if t.Rating != catalog.UnratedRating {
				continue
			}
		}
		ids = append(ids, t.TrackID)
	}
	return ids
}
