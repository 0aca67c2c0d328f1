package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultAPIBase = "https://discord.com/api/v10"
	defaultTimeout = 30 * time.Second
	userAgent      = "DiscordBot (https://github.com/oliviabot/oliviabot, 1.0)"
)

// APIError is returned for non-2xx REST responses
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord: %s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Option configures a REST Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// Client is a bot-authenticated Discord REST client
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient creates a REST client for the given bot token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: defaultAPIBase,
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("discord: marshal: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(msg)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("discord: decode %s: %w", path, err)
	}
	return nil
}

// CreateMessage posts a message to a channel
func (c *Client) CreateMessage(ctx context.Context, channelID string, msg MessageSend) (*Message, error) {
	var out Message
	if err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", msg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditMessage replaces the content and embeds of a message
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, msg MessageSend) (*Message, error) {
	var out Message
	if err := c.do(ctx, http.MethodPatch, "/channels/"+channelID+"/messages/"+messageID, msg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Channel fetches a channel by ID
func (c *Client) Channel(ctx context.Context, id string) (*Channel, error) {
	var out Channel
	if err := c.do(ctx, http.MethodGet, "/channels/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Guild fetches a guild by ID
func (c *Client) Guild(ctx context.Context, id string) (*Guild, error) {
	var out Guild
	if err := c.do(ctx, http.MethodGet, "/guilds/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkOverwriteGlobalCommands replaces every global application command of
// appID with cmds and returns the definitions Discord stored.
func (c *Client) BulkOverwriteGlobalCommands(ctx context.Context, appID string, cmds []ApplicationCommand) ([]ApplicationCommand, error) {
	if appID == "" {
		return nil, fmt.Errorf("discord: bulk overwrite commands: missing application ID")
	}
	if cmds == nil {
		cmds = []ApplicationCommand{}
	}
	var out []ApplicationCommand
	if err := c.do(ctx, http.MethodPut, "/applications/"+appID+"/commands", cmds, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// interaction callback type 4: channel message with source
const callbackChannelMessage = 4

type interactionCallback struct {
	Type int         `json:"type"`
	Data MessageSend `json:"data"`
}

// RespondInteraction sends the initial response to a slash command
func (c *Client) RespondInteraction(ctx context.Context, in Interaction, msg MessageSend) error {
	path := fmt.Sprintf("/interactions/%s/%s/callback", in.ID, in.Token)
	return c.do(ctx, http.MethodPost, path, interactionCallback{Type: callbackChannelMessage, Data: msg}, nil)
}
