package presenter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathkeeper/tracker/pkg/core"
	"github.com/pathkeeper/tracker/pkg/streaming"
)

var (
	_ MapPresenter   = (*Stream)(nil)
	_ ElapsedDisplay = (*Stream)(nil)
	_ MapPresenter   = (*Log)(nil)
	_ ElapsedDisplay = (*Log)(nil)
	_ MapPresenter   = (*GeoJSON)(nil)
	_ MapPresenter   = Fanout(nil)
)

type received struct {
	conn int
	env  streaming.Envelope
}

type messageLog struct {
	mu       sync.Mutex
	messages []received
}

func (m *messageLog) add(conn int, env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, received{conn: conn, env: env})
}

func (m *messageLog) all() []received {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]received(nil), m.messages...)
}

func (m *messageLog) types(conn int) []string {
	var out []string
	for _, r := range m.all() {
		if r.conn == conn {
			out = append(out, r.env.Type)
		}
	}
	return out
}

// mapClient acks hello messages and records everything. When dropAfter is
// positive, the first connection is closed after that many messages.
func mapClient(t *testing.T, dropAfter int) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}
	var conns atomic.Int32

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("secret") != "s3cret" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()
		id := int(conns.Add(1))

		seen := 0
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(id, env)
			seen++

			if env.Type == streaming.TypeHello {
				data, _ := json.Marshal(streaming.AckMessage{Type: streaming.TypeAck, For: env.Type})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
			if id == 1 && dropAfter > 0 && seen >= dropAfter {
				return
			}
		}
	}))
	return srv, ml
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStream_Messages(t *testing.T) {
	srv, ml := mapClient(t, 0)
	defer srv.Close()

	s := NewStream(StreamConfig{URL: wsURL(srv), Secret: "s3cret"}, slog.Default())
	require.NoError(t, s.Init())
	defer s.Close()

	smp := core.GeoSample{Latitude: 52.52, Longitude: 13.405, Accuracy: 5}
	s.Recenter(smp)
	s.Render(Frame{Center: &smp, Path: []core.GeoSample{smp}})
	s.ShowElapsed(61 * time.Second)

	require.Eventually(t, func() bool { return len(ml.all()) == 4 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{
		streaming.TypeHello,
		streaming.TypeRecenter,
		streaming.TypeFrame,
		streaming.TypeElapsed,
	}, ml.types(1))

	msgs := ml.all()

	var rc streaming.RecenterPayload
	require.NoError(t, json.Unmarshal(msgs[1].env.Payload, &rc))
	assert.Equal(t, 17604, rc.TileX)
	assert.Equal(t, 15, rc.Zoom)

	var fp streaming.FramePayload
	require.NoError(t, json.Unmarshal(msgs[2].env.Payload, &fp))
	assert.Len(t, fp.Path, 1)
	assert.NotNil(t, fp.Places)
	assert.Zero(t, fp.PathLength)

	var ep streaming.ElapsedPayload
	require.NoError(t, json.Unmarshal(msgs[3].env.Payload, &ep))
	assert.Equal(t, int64(61000), ep.Millis)
	assert.Equal(t, "1:01", ep.Label)
}

func TestStream_BadSecret(t *testing.T) {
	srv, _ := mapClient(t, 0)
	defer srv.Close()

	s := NewStream(StreamConfig{URL: wsURL(srv), Secret: "wrong"}, slog.Default())
	assert.Error(t, s.Init())
}

func TestStream_ReconnectReplaysLatestFrame(t *testing.T) {
	// first connection drops after hello + frame + one more message
	srv, ml := mapClient(t, 3)
	defer srv.Close()

	s := NewStream(StreamConfig{URL: wsURL(srv), Secret: "s3cret"}, slog.Default())
	s.conn.backoff = 10 * time.Millisecond
	require.NoError(t, s.Init())
	defer s.Close()

	smp := core.GeoSample{Latitude: 1, Longitude: 2, Accuracy: 5}
	s.Render(Frame{Center: &smp})
	s.Recenter(smp)

	require.Eventually(t, func() bool {
		return len(ml.types(2)) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{streaming.TypeHello, streaming.TypeFrame}, ml.types(2)[:2])

	s.ShowElapsed(time.Second)
	require.Eventually(t, func() bool {
		types := ml.types(2)
		return types[len(types)-1] == streaming.TypeElapsed
	}, time.Second, 10*time.Millisecond)
}

func TestStream_CloseIdempotent(t *testing.T) {
	srv, _ := mapClient(t, 0)
	defer srv.Close()

	s := NewStream(StreamConfig{URL: wsURL(srv), Secret: "s3cret"}, slog.Default())
	require.NoError(t, s.Init())
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestStream_FailedInitDoesNotReconnect(t *testing.T) {
	var dials atomic.Int32
	drop := make(chan struct{})

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		dials.Add(1)
		go func() {
			<-drop
			_ = c.Close()
		}()
		// never acks
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	s := NewStream(StreamConfig{URL: wsURL(srv)}, slog.Default())
	s.ackTimeout = 50 * time.Millisecond
	s.conn.backoff = 10 * time.Millisecond

	err := s.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `timeout waiting for ack of "hello"`)

	close(drop)
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, int32(1), dials.Load())
	assert.NoError(t, s.Close())
}

func TestStream_CloseWhileSending(t *testing.T) {
	srv, _ := mapClient(t, 0)
	defer srv.Close()

	s := NewStream(StreamConfig{URL: wsURL(srv), Secret: "s3cret"}, slog.Default())
	require.NoError(t, s.Init())

	smp := core.GeoSample{Latitude: 1, Longitude: 2, Accuracy: 5}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 200 {
			s.Render(Frame{Center: &smp, Path: []core.GeoSample{smp}})
		}
	}()

	require.NoError(t, s.Close())
	wg.Wait()
}
