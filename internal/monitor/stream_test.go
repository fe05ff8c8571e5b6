package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamTestServer serves the provider protocol: it reads one subscribe
// message per connection, answers with a single update naming the
// connection, and drops the first connection immediately after.
func streamTestServer(t *testing.T, done <-chan struct{}) (*httptest.Server, *int32) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	var connCount int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		n := atomic.AddInt32(&connCount, 1)

		var sub map[string]interface{}
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("expected subscribe message: %v", err)
			conn.Close()
			return
		}

		update := streamMessage{Op: "update", Updates: []LineUpdate{{
			GameID:     fmt.Sprintf("game-%d", n),
			MarketType: "spread",
			Line:       -3.5,
		}}}
		if err := conn.WriteJSON(update); err != nil {
			t.Errorf("failed to write update: %v", err)
		}

		if n == 1 {
			conn.Close()
			return
		}
		<-done
		conn.Close()
	}))
	return srv, &connCount
}

func recvUpdate(t *testing.T, ch <-chan LineUpdate) LineUpdate {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for stream update")
		return LineUpdate{}
	}
}

// TestStreamReconnectsAndResubscribes tests that a dropped connection is
// redialed after the configured delay and the subscription replayed
func TestStreamReconnectsAndResubscribes(t *testing.T) {
	done := make(chan struct{})
	srv, connCount := streamTestServer(t, done)
	defer srv.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	s := NewStreamClient(wsURL, "", 20*time.Millisecond, log)
	updates := make(chan LineUpdate, 4)
	s.AddHandler(func(u LineUpdate) error {
		updates <- u
		return nil
	})

	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Subscribe([]string{"2024020156"}, []string{"spread"}))

	assert.Equal(t, "game-1", recvUpdate(t, updates).GameID)

	// The server dropped the first connection; the second update proves the
	// client redialed and replayed the subscription on its own.
	assert.Equal(t, "game-2", recvUpdate(t, updates).GameID)
	assert.Equal(t, int32(2), atomic.LoadInt32(connCount))

	require.NoError(t, s.Close())
	close(done)

	// Closing stops the reconnect loop for good.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(connCount))
	assert.False(t, s.IsConnected())
}

// TestStreamNoReconnectWhenDisabled tests that a zero delay disables redialing
func TestStreamNoReconnectWhenDisabled(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	srv, connCount := streamTestServer(t, done)
	defer srv.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	s := NewStreamClient(wsURL, "", 0, log)
	updates := make(chan LineUpdate, 4)
	s.AddHandler(func(u LineUpdate) error {
		updates <- u
		return nil
	})

	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Subscribe([]string{"2024020156"}, []string{"spread"}))
	recvUpdate(t, updates)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(connCount))
	assert.False(t, s.IsConnected())
	require.NoError(t, s.Close())
}
