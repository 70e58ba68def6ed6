// Package gateway pushes change notifications to open pages over socket.io. Pages
// connect to the /web namespace; dashboards with an admin token to /admin.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	pkgredis "github.com/microsolutions/showcase/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	RoomAdmin      = "admin"
	RoomPublic     = "public"
	namespaceAdmin = "/admin"
	namespaceWeb   = "/web"
	redisChannel   = "showcase:gateway"
	queueSize      = 256
)

// Message is the envelope used for local delivery and Redis fan-out.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
	Room    string `json:"room,omitempty"`
	Origin  string `json:"origin"`
}

type wireMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type clientMeta struct {
	sid  string
	room string
}

// Hub owns the socket.io server. Messages broadcast on one instance reach clients of
// every instance through a Redis channel.
type Hub struct {
	mu        sync.RWMutex
	sidRoom   map[string]string
	roomCount map[string]int

	id         string
	broadcast  chan Message
	register   chan clientMeta
	unregister chan clientMeta

	rc         *pkgredis.Client
	logger     *zap.Logger
	sio        *socketio.Server
	validToken func(string) bool
	onRemote   func(ctx context.Context, msg Message)
}

// NewHub builds a hub. rc may be nil for a single instance.
func NewHub(rc *pkgredis.Client, logger *zap.Logger, validToken func(string) bool) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		sidRoom:    make(map[string]string),
		roomCount:  make(map[string]int),
		id:         uuid.NewString(),
		broadcast:  make(chan Message, queueSize),
		register:   make(chan clientMeta, queueSize),
		unregister: make(chan clientMeta, queueSize),
		rc:         rc,
		logger:     logger.Named("gateway"),
		sio:        socketio.NewServer(nil, nil),
		validToken: validToken,
	}
	h.registerNamespaces()
	return h
}

// OnRemote registers a callback for messages that arrived from another instance.
func (h *Hub) OnRemote(fn func(ctx context.Context, msg Message)) { h.onRemote = fn }

func (h *Hub) registerNamespaces() {
	_ = h.sio.Of(namespaceWeb, nil).On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		h.join(client, RoomPublic)
	})

	_ = h.sio.Of(namespaceAdmin, nil).On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		token := normalizeToken(extractToken(client))
		if token == "" || h.validToken == nil || !h.validToken(token) {
			_ = client.Emit("message", wireMessage{Type: "AUTH_FAILED", Data: "auth failed"})
			client.Disconnect(true)
			return
		}
		h.join(client, RoomAdmin)
	})
}

func (h *Hub) join(client *socketio.Socket, room string) {
	sid := string(client.Id())
	h.register <- clientMeta{sid: sid, room: room}
	_ = client.Emit("message", wireMessage{Type: "GATEWAY_CONNECT", Data: "connected"})
	_ = client.On("disconnect", func(...any) {
		h.unregister <- clientMeta{sid: sid, room: room}
	})
}

func extractToken(client *socketio.Socket) string {
	handshake := client.Handshake()
	if handshake == nil {
		return ""
	}
	if token := firstValue(handshake.Query, "token"); token != "" {
		return token
	}
	return firstValue(handshake.Headers, "authorization")
}

func firstValue(values map[string][]string, key string) string {
	for k, list := range values {
		if strings.EqualFold(strings.TrimSpace(k), key) && len(list) > 0 {
			if v := strings.TrimSpace(list[0]); v != "" {
				return v
			}
		}
	}
	return ""
}

func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// Run delivers queued messages until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rc != nil {
		go h.subscribeRedis(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case msg := <-h.broadcast:
			h.deliver(msg)
			h.publishRemote(ctx, msg)
		}
	}
}

func (h *Hub) publishRemote(ctx context.Context, msg Message) {
	if h.rc == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("encode gateway message failed", zap.String("event", msg.Event), zap.Error(err))
		return
	}
	if err := h.rc.Publish(ctx, redisChannel, string(data)); err != nil {
		h.logger.Warn("gateway publish failed", zap.Error(err))
	}
}

func (h *Hub) registerClient(c clientMeta) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.sidRoom[c.sid]; ok {
		if old == c.room {
			return
		}
		h.roomCount[old]--
	}
	h.sidRoom[c.sid] = c.room
	h.roomCount[c.room]++
}

func (h *Hub) unregisterClient(c clientMeta) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.sidRoom[c.sid]
	if !ok {
		return
	}
	delete(h.sidRoom, c.sid)
	h.roomCount[room]--
}

func (h *Hub) deliver(msg Message) {
	out := wireMessage{Type: msg.Event, Data: msg.Payload}
	if msg.Room != RoomAdmin {
		h.sio.Of(namespaceWeb, nil).Emit("message", out)
	}
	if msg.Room != RoomPublic {
		h.sio.Of(namespaceAdmin, nil).Emit("message", out)
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			h.receiveRemote(ctx, []byte(m.Payload))
		}
	}
}

// receiveRemote delivers a message published by another instance. Our own messages
// were delivered when they were queued.
func (h *Hub) receiveRemote(ctx context.Context, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Origin == h.id {
		return
	}
	if h.onRemote != nil {
		h.onRemote(ctx, msg)
	}
	h.deliver(msg)
}

// Broadcast queues an event for the room ("" for every room). It never blocks: when
// the queue is full the message is dropped and pages catch up on their next poll.
func (h *Hub) Broadcast(event string, payload any, room string) {
	select {
	case h.broadcast <- Message{Event: event, Payload: payload, Room: room, Origin: h.id}:
	default:
		h.logger.Warn("gateway queue full, dropping message", zap.String("event", event))
	}
}

// ClientCount returns the number of connected clients in room, or all when room is "".
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room == "" {
		return len(h.sidRoom)
	}
	return h.roomCount[room]
}

func (h *Hub) Handler() http.Handler { return h.sio.ServeHandler(nil) }

// RegisterRoutes mounts socket.io and the connection stats endpoint.
func RegisterRoutes(rg *gin.RouterGroup, hub *Hub) {
	handler := gin.WrapH(hub.Handler())
	rg.Any("/socket.io", handler)
	rg.Any("/socket.io/*any", handler)

	rg.GET("/gateway/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"public": hub.ClientCount(RoomPublic),
			"admin":  hub.ClientCount(RoomAdmin),
			"total":  hub.ClientCount(""),
		})
	})
}
