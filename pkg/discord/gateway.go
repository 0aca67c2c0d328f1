package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oliviabot/oliviabot/pkg/logger"
)

// DefaultGatewayURL is the v10 JSON gateway endpoint
const DefaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway opcodes
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

// Gateway intents
const (
	IntentGuilds         = 1 << 0
	IntentGuildMessages  = 1 << 9
	IntentDirectMessages = 1 << 12
	IntentMessageContent = 1 << 15
)

// ErrReconnect is returned by Run when Discord asks the client to reconnect.
var ErrReconnect = errors.New("gateway: reconnect requested")

type gatewayPayload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type identify struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

// Ready is the READY dispatch payload
type Ready struct {
	User        User        `json:"user"`
	SessionID   string      `json:"session_id"`
	Application Application `json:"application"`
}

// Handlers receive dispatched gateway events. Message and interaction
// handlers run on their own goroutine per event.
type Handlers struct {
	Ready             func(Ready)
	MessageCreate     func(Message)
	InteractionCreate func(Interaction)
}

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

// WithGatewayURL overrides the gateway endpoint
func WithGatewayURL(u string) GatewayOption {
	return func(g *Gateway) { g.url = u }
}

// WithLogger sets the gateway logger
func WithLogger(l *logger.Logger) GatewayOption {
	return func(g *Gateway) { g.log = l }
}

// Gateway is a single gateway connection
type Gateway struct {
	url      string
	token    string
	intents  int
	dialer   *websocket.Dialer
	state    *State
	handlers Handlers
	log      *logger.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	seq      atomic.Int64
	lastBeat atomic.Int64
	latency  atomic.Int64
}

// NewGateway creates a gateway client. state may be nil.
func NewGateway(token string, intents int, state *State, h Handlers, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		url:      DefaultGatewayURL,
		token:    token,
		intents:  intents,
		dialer:   websocket.DefaultDialer,
		state:    state,
		handlers: h,
		log:      logger.Global().WithComponent("gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Latency returns the round trip of the last acknowledged heartbeat.
func (g *Gateway) Latency() time.Duration {
	return time.Duration(g.latency.Load())
}

// Run connects, identifies and processes events until ctx is cancelled
// (returns nil) or the connection fails.
func (g *Gateway) Run(ctx context.Context) error {
	conn, _, err := g.dialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("gateway: dial: %w", err)
	}
	g.writeMu.Lock()
	g.conn = conn
	g.writeMu.Unlock()
	g.seq.Store(-1)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-runCtx.Done()
		g.Close()
	}()

	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("gateway: read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("gateway: expected hello, got op %d", hello.Op)
	}
	var h struct {
		HeartbeatInterval int64 `json:"heartbeat_interval"`
	}
	if err := json.Unmarshal(hello.D, &h); err != nil {
		return fmt.Errorf("gateway: decode hello: %w", err)
	}

	if err := g.send(opIdentify, identify{
		Token:   g.token,
		Intents: g.intents,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "oliviabot",
			Device:  "oliviabot",
		},
	}); err != nil {
		return err
	}

	go g.heartbeat(runCtx, time.Duration(h.HeartbeatInterval)*time.Millisecond)

	for {
		var p gatewayPayload
		if err := conn.ReadJSON(&p); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("gateway: read: %w", err)
		}
		if p.S != nil {
			g.seq.Store(*p.S)
		}

		switch p.Op {
		case opDispatch:
			g.dispatch(p.T, p.D)
		case opHeartbeat:
			if err := g.sendHeartbeat(); err != nil {
				return err
			}
		case opHeartbeatAck:
			if sent := g.lastBeat.Load(); sent != 0 {
				g.latency.Store(int64(time.Since(time.Unix(0, sent))))
			}
		case opReconnect, opInvalidSession:
			return ErrReconnect
		}
	}
}

// Close sends a normal close frame and closes the connection.
func (g *Gateway) Close() {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	if g.conn == nil {
		return
	}
	_ = g.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = g.conn.Close()
	g.conn = nil
}

func (g *Gateway) send(op int, d any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("gateway: marshal op %d: %w", op, err)
	}
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	if g.conn == nil {
		return fmt.Errorf("gateway: connection closed")
	}
	return g.conn.WriteJSON(gatewayPayload{Op: op, D: data})
}

func (g *Gateway) sendHeartbeat() error {
	g.lastBeat.Store(time.Now().UnixNano())
	var d any
	if seq := g.seq.Load(); seq >= 0 {
		d = seq
	}
	return g.send(opHeartbeat, d)
}

func (g *Gateway) heartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	// first beat is jittered
	jitter := time.Duration(rand.Int64N(int64(interval)))
	timer := time.NewTimer(jitter)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := g.sendHeartbeat(); err != nil {
				g.log.Warn("heartbeat failed", "error", err)
				return
			}
			timer.Reset(interval)
		}
	}
}

func (g *Gateway) dispatch(event string, data json.RawMessage) {
	switch event {
	case "READY":
		var r Ready
		if g.decode(event, data, &r) && g.handlers.Ready != nil {
			g.handlers.Ready(r)
		}
	case "GUILD_CREATE", "GUILD_UPDATE":
		var guild Guild
		if g.decode(event, data, &guild) && g.state != nil {
			g.state.AddGuild(guild)
		}
	case "GUILD_DELETE":
		var guild Guild
		if g.decode(event, data, &guild) && g.state != nil {
			g.state.RemoveGuild(guild.ID)
		}
	case "CHANNEL_CREATE", "CHANNEL_UPDATE":
		var ch Channel
		if g.decode(event, data, &ch) && g.state != nil {
			g.state.AddChannel(ch)
		}
	case "MESSAGE_CREATE":
		var m Message
		if g.decode(event, data, &m) && g.handlers.MessageCreate != nil {
			go g.handlers.MessageCreate(m)
		}
	case "INTERACTION_CREATE":
		var in Interaction
		if g.decode(event, data, &in) && g.handlers.InteractionCreate != nil {
			go g.handlers.InteractionCreate(in)
		}
	}
}

func (g *Gateway) decode(event string, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		g.log.Warn("failed to decode dispatch", "event", event, "error", err)
		return false
	}
	return true
}
