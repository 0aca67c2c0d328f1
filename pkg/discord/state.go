package discord

import (
	"context"
	"sync"
)

// State caches guilds and channels seen on the gateway so that lookups
// during command handling rarely need a REST round trip.
type State struct {
	mu       sync.RWMutex
	guilds   map[string]Guild
	channels map[string]Channel
	rest     *Client
}

// NewState creates a cache that falls back to rest for misses. rest may be nil.
func NewState(rest *Client) *State {
	return &State{
		guilds:   make(map[string]Guild),
		channels: make(map[string]Channel),
		rest:     rest,
	}
}

// AddGuild stores a guild and its channels
func (s *State) AddGuild(g Guild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range g.Channels {
		if ch.GuildID == "" {
			ch.GuildID = g.ID
		}
		s.channels[ch.ID] = ch
	}
	g.Channels = nil
	s.guilds[g.ID] = g
}

// RemoveGuild evicts a guild and its channels
func (s *State) RemoveGuild(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guilds, id)
	for cid, ch := range s.channels {
		if ch.GuildID == id {
			delete(s.channels, cid)
		}
	}
}

// AddChannel stores a single channel
func (s *State) AddChannel(ch Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[ch.ID] = ch
}

// GuildCount returns the number of cached guilds
func (s *State) GuildCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.guilds)
}

// Guild returns a copy of a guild, fetching it when not cached.
func (s *State) Guild(ctx context.Context, id string) (Guild, bool) {
	if id == "" {
		return Guild{}, false
	}
	s.mu.RLock()
	g, ok := s.guilds[id]
	s.mu.RUnlock()
	if ok {
		return g, true
	}
	if s.rest == nil {
		return Guild{}, false
	}
	fetched, err := s.rest.Guild(ctx, id)
	if err != nil {
		return Guild{}, false
	}
	s.AddGuild(*fetched)
	fetched.Channels = nil
	return *fetched, true
}

// Channel returns a copy of a channel, fetching it when not cached.
func (s *State) Channel(ctx context.Context, id string) (Channel, bool) {
	if id == "" {
		return Channel{}, false
	}
	s.mu.RLock()
	ch, ok := s.channels[id]
	s.mu.RUnlock()
	if ok {
		return ch, true
	}
	if s.rest == nil {
		return Channel{}, false
	}
	fetched, err := s.rest.Channel(ctx, id)
	if err != nil {
		return Channel{}, false
	}
	s.AddChannel(*fetched)
	return *fetched, true
}
