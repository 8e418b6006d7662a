package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/colabhq/workspace-core/internal/auth"
	"github.com/colabhq/workspace-core/internal/config"
	"github.com/colabhq/workspace-core/internal/events"
	"github.com/colabhq/workspace-core/internal/rbac"
)

// WSTransport is what the hub needs from the broadcast transport:
// inbound traffic, membership bookkeeping, and the ability to announce
// joins and leaves to everyone else.
type WSTransport interface {
	events.Subscriber
	events.PresenceRegistry
	events.Broadcaster
}

// wsSocket is the slice of *websocket.Conn the hub uses, extracted so
// the serve loop is testable without a live upgrade.
type wsSocket interface {
	Query(key string, defaultValue ...string) string
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// wsClient serializes writes to one socket. The underlying conn's
// write methods are not safe for concurrent use, and both the fan-out
// goroutine and the read loop send on it.
type wsClient struct {
	sock wsSocket
	mu   sync.Mutex
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteMessage(websocket.TextMessage, data)
}

// WSHub bridges the broadcast transport to connected websocket
// clients. Each socket joins presence channels explicitly; only
// sockets subscribed at publish time receive an event, missed events
// are gone.
type WSHub struct {
	cfg       *config.Config
	transport WSTransport
	log       *zap.Logger

	mu       sync.RWMutex
	channels map[string]map[*wsClient]struct{}
}

func NewWSHub(cfg *config.Config, transport WSTransport, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:       cfg,
		transport: transport,
		log:       log,
		channels:  make(map[string]map[*wsClient]struct{}),
	}
}

// Start attaches the hub to every presence channel on the transport.
func (h *WSHub) Start(ctx context.Context) {
	_ = h.transport.Subscribe(ctx, "presence-*", func(channel string, event events.Event) {
		h.dispatch(channel, event)
	})
}

type wsEnvelope struct {
	Channel string       `json:"channel"`
	Event   events.Event `json:"event"`
}

func (h *WSHub) dispatch(channel string, event events.Event) {
	data, err := json.Marshal(wsEnvelope{Channel: channel, Event: event})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.channels[channel] {
		_ = client.send(data)
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

type wsClientFrame struct {
	Action      string `json:"action"` // join / leave
	WorkspaceID string `json:"workspace_id"`
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	h.serve(conn)
}

// serve authenticates the socket (headers are unavailable on ws
// upgrades, so the token rides the query string) and then handles
// join/leave frames until the client goes away.
func (h *WSHub) serve(sock wsSocket) {
	client := &wsClient{sock: sock}

	tokenStr := sock.Query("token")
	if tokenStr == "" {
		_ = client.send([]byte(`{"error":"missing token"}`))
		sock.Close()
		return
	}

	claims, err := auth.ParseToken(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = client.send([]byte(`{"error":"invalid token"}`))
		sock.Close()
		return
	}

	joined := make(map[string]bool)

	defer func() {
		h.mu.Lock()
		for channel := range joined {
			h.detach(channel, client)
		}
		h.mu.Unlock()
		for channel := range joined {
			h.leaveChannel(channel, claims)
		}
		sock.Close()
	}()

	for {
		_, msg, err := sock.ReadMessage()
		if err != nil {
			return
		}

		var frame wsClientFrame
		if err := json.Unmarshal(msg, &frame); err != nil || frame.WorkspaceID == "" {
			_ = client.send([]byte(`{"error":"invalid frame"}`))
			continue
		}

		channel := events.ChannelName(events.ScopeWorkspace, frame.WorkspaceID)

		switch frame.Action {
		case "join":
			if !rbac.HasPermission(claims.Role, rbac.PermWorkspaceView) {
				_ = client.send([]byte(`{"error":"forbidden"}`))
				continue
			}
			h.mu.Lock()
			if h.channels[channel] == nil {
				h.channels[channel] = make(map[*wsClient]struct{})
			}
			h.channels[channel][client] = struct{}{}
			h.mu.Unlock()
			joined[channel] = true
			h.joinChannel(channel, claims)
		case "leave":
			h.mu.Lock()
			h.detach(channel, client)
			h.mu.Unlock()
			delete(joined, channel)
			h.leaveChannel(channel, claims)
		default:
			_ = client.send([]byte(`{"error":"unknown action"}`))
		}
	}
}

func (h *WSHub) joinChannel(channel string, claims *auth.Claims) {
	ctx := context.Background()
	if err := h.transport.Join(ctx, channel, claims.UserID.String()); err != nil {
		h.log.Warn("presence join not recorded", zap.String("channel", channel), zap.Error(err))
	}
	// Announcements are best-effort, same as any other publish.
	if err := h.transport.Publish(ctx, channel, events.Event{
		Name: events.EventJoined,
		Payload: map[string]any{
			"userId":   claims.UserID.String(),
			"userName": claims.Name,
		},
	}); err != nil {
		h.log.Warn("join announcement lost", zap.String("channel", channel), zap.Error(err))
	}
}

func (h *WSHub) leaveChannel(channel string, claims *auth.Claims) {
	ctx := context.Background()
	if err := h.transport.Leave(ctx, channel, claims.UserID.String()); err != nil {
		h.log.Warn("presence leave not recorded", zap.String("channel", channel), zap.Error(err))
	}
	if err := h.transport.Publish(ctx, channel, events.Event{
		Name: events.EventLeft,
		Payload: map[string]any{
			"userId":   claims.UserID.String(),
			"userName": claims.Name,
		},
	}); err != nil {
		h.log.Warn("leave announcement lost", zap.String("channel", channel), zap.Error(err))
	}
}

// detach removes a client from a channel. Caller holds h.mu.
func (h *WSHub) detach(channel string, client *wsClient) {
	clients := h.channels[channel]
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.channels, channel)
	}
}
