package command

import (
	"context"
	"sync"

	"github.com/oliviabot/oliviabot/pkg/discord"
)

// fakePlatform records everything sent through it
type fakePlatform struct {
	mu        sync.Mutex
	sent      []discord.MessageSend
	responses []discord.MessageSend
}

func (p *fakePlatform) CreateMessage(_ context.Context, channelID string, msg discord.MessageSend) (*discord.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return &discord.Message{ID: "reply", ChannelID: channelID, Content: msg.Content}, nil
}

func (p *fakePlatform) EditMessage(_ context.Context, channelID, messageID string, msg discord.MessageSend) (*discord.Message, error) {
	return &discord.Message{ID: messageID, ChannelID: channelID, Content: msg.Content}, nil
}

func (p *fakePlatform) RespondInteraction(_ context.Context, _ discord.Interaction, msg discord.MessageSend) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, msg)
	return nil
}

func (p *fakePlatform) contents() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.sent {
		out = append(out, m.Content)
	}
	return out
}

// eventSink collects raised failure events
type eventSink struct {
	mu     sync.Mutex
	events []FailureEvent
}

func (s *eventSink) OnError(ev FailureEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *eventSink) all() []FailureEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FailureEvent(nil), s.events...)
}
