package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	event string
	room  string
}

type fakeBroadcaster struct{ got []sent }

func (f *fakeBroadcaster) Broadcast(event string, _ any, room string) {
	f.got = append(f.got, sent{event: event, room: room})
}

func TestNotifierPurgesCacheAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	store := middleware.NewMemoryStore()
	require.NoError(t, store.Set(ctx, middleware.HTTPCachePrefix+"GET:/api/v1/solutions", []byte("x"), time.Minute))
	require.NoError(t, store.Set(ctx, "showcase:other", []byte("y"), time.Minute))

	out := &fakeBroadcaster{}
	NewNotifier(out, store, nil).Publish(ctx, "SOLUTIONS_UPDATE", map[string]string{"id": "1"})

	_, found, err := store.Get(ctx, middleware.HTTPCachePrefix+"GET:/api/v1/solutions")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, _ = store.Get(ctx, "showcase:other")
	assert.True(t, found)
	assert.Equal(t, []sent{{event: "SOLUTIONS_UPDATE"}}, out.got)
}

func TestHubCountsClientsPerRoom(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	hub.registerClient(clientMeta{sid: "a", room: RoomPublic})
	hub.registerClient(clientMeta{sid: "b", room: RoomPublic})
	hub.registerClient(clientMeta{sid: "c", room: RoomAdmin})
	hub.registerClient(clientMeta{sid: "c", room: RoomAdmin})

	assert.Equal(t, 2, hub.ClientCount(RoomPublic))
	assert.Equal(t, 1, hub.ClientCount(RoomAdmin))
	assert.Equal(t, 3, hub.ClientCount(""))

	hub.unregisterClient(clientMeta{sid: "a"})
	hub.unregisterClient(clientMeta{sid: "missing"})
	assert.Equal(t, 1, hub.ClientCount(RoomPublic))
	assert.Equal(t, 2, hub.ClientCount(""))
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	for i := 0; i < queueSize+10; i++ {
		hub.Broadcast("SOLUTIONS_UPDATE", i, "")
	}
	assert.Len(t, hub.broadcast, queueSize)
}

func TestReceiveRemoteSkipsOwnMessages(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	var remote []string
	hub.OnRemote(func(_ context.Context, msg Message) { remote = append(remote, msg.Event) })

	own, err := json.Marshal(Message{Event: "OWN", Origin: hub.id})
	require.NoError(t, err)
	other, err := json.Marshal(Message{Event: "OTHER", Origin: "another-instance"})
	require.NoError(t, err)

	hub.receiveRemote(context.Background(), own)
	hub.receiveRemote(context.Background(), other)
	hub.receiveRemote(context.Background(), []byte("not json"))

	assert.Equal(t, []string{"OTHER"}, remote)
}

func TestStatsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil, nil, nil)
	hub.registerClient(clientMeta{sid: "a", room: RoomPublic})

	r := gin.New()
	RegisterRoutes(r.Group(""), hub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gateway/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]int{"public": 1, "admin": 0, "total": 1}, body)
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", normalizeToken("Bearer abc"))
	assert.Equal(t, "abc", normalizeToken("  abc "))
	assert.Equal(t, "x", firstValue(map[string][]string{"Token": {" x "}}, "token"))
}
