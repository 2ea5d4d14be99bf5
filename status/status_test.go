package status

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, b *Broadcaster) *websocket.Conn {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.Serve(conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readStatus(t *testing.T, conn *websocket.Conn) Status {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var s Status
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func waitHistory(t *testing.T, b *Broadcaster, n int) {
	require.Eventually(t, func() bool { return len(b.History()) >= n }, 5*time.Second, 10*time.Millisecond)
}

func TestHistoryReplayedToNewClient(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	b.Publish(&Status{Message: "first", Type: INFO})
	b.Publish(&Status{Message: "a.asset added", Type: ASSET, File: "a.asset", Event: "added"})
	waitHistory(t, b, 2)

	conn := serve(t, b)
	assert.Equal(t, "first", readStatus(t, conn).Message)
	s := readStatus(t, conn)
	assert.Equal(t, ASSET, s.Type)
	assert.Equal(t, "a.asset", s.File)

	b.Publish(&Status{Message: "live", Type: PROGRESS, Progress: float32(math.NaN())})
	s = readStatus(t, conn)
	assert.Equal(t, "live", s.Message)
	assert.Equal(t, float32(0), s.Progress)
}

func TestHistoryIsBounded(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	for i := 0; i < historySize+10; i++ {
		b.Publish(&Status{Message: "m", Type: INFO})
	}
	b.Publish(&Status{Message: "last", Type: INFO})
	require.Eventually(t, func() bool {
		h := b.History()
		return len(h) > 0 && h[len(h)-1].Message == "last"
	}, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, b.History(), historySize)
}

func TestPackageHelpers(t *testing.T) {
	Info("imported %d groups", 3)
	Asset("updated", "chair.asset")
	require.Eventually(t, func() bool {
		h := Default.History()
		return len(h) >= 2 && h[len(h)-1].Event == "updated"
	}, 5*time.Second, 10*time.Millisecond)
	h := Default.History()
	assert.Equal(t, "imported 3 groups", h[len(h)-2].Message)
}
