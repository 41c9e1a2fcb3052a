package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pulseview/pulseview/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSocket_Config_Validate(t *testing.T) {
	t.Parallel()

	cfg := SocketConfig{}
	require.Error(t, cfg.Validate())

	cfg.URL = "ws://127.0.0.1:8000/ws/stream"
	require.Error(t, cfg.Validate())

	cfg.OnData = func(*models.StreamData) {}
	require.NoError(t, cfg.Validate())
}

func TestStreamSocketURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ws://10.0.2.2:8000/ws/stream", StreamSocketURL("http://10.0.2.2:8000"))
	require.Equal(t, "wss://api.pulseband.io/ws/stream", StreamSocketURL("https://api.pulseband.io"))
}

// The reconnect delay schedule starts at the floor and doubles each
// attempt up to the ceiling, with no jitter.
func TestSocket_ReconnectDelaySchedule(t *testing.T) {
	t.Parallel()

	bo := newReconnectBackoff(time.Second, 30*time.Second)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		require.Equal(t, w, bo.NextBackOff(), "attempt %d", i+1)
	}
}

// scriptedConn feeds a fixed message sequence to the read loop, then
// blocks until closed.
type scriptedConn struct {
	msgs   [][]byte
	idx    int
	closed chan struct{}
}

func newScriptedConn(msgs ...string) *scriptedConn {
	raw := make([][]byte, len(msgs))
	for i, m := range msgs {
		raw[i] = []byte(m)
	}
	return &scriptedConn{msgs: raw, closed: make(chan struct{})}
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	if c.idx < len(c.msgs) {
		m := c.msgs[c.idx]
		c.idx++
		return websocket.TextMessage, m, nil
	}
	<-c.closed
	return 0, nil, errors.New("use of closed connection")
}

func (c *scriptedConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}

func TestSocket_DispatchesOnlyStreamDataFrames(t *testing.T) {
	t.Parallel()

	conn := newScriptedConn(
		`{"type":"stream_data","data":{"device_id":"band-7","raw_signals":{"heart_rate":64}}}`,
		`{"type":"ping"}`,
		`{this is not json`,
		`{"type":"stream_data","data":{"device_id":"band-7","raw_signals":{"heart_rate":66}}}`,
	)

	var got []float64
	dataDone := make(chan struct{}, 4)

	s, err := NewStreamSocket(SocketConfig{
		URL:   "ws://test/ws/stream",
		Clock: clockwork.NewFakeClock(),
		Dial: func(ctx context.Context, url string) (wsConn, error) {
			return conn, nil
		},
		OnData: func(d *models.StreamData) {
			got = append(got, d.Raw.HeartRate)
			dataDone <- struct{}{}
		},
	})
	require.NoError(t, err)

	s.Connect(context.Background())

	waitRecv(t, dataDone)
	waitRecv(t, dataDone)

	// Two stream_data frames delivered; the ping and the malformed
	// frame produced nothing, and the connection survived them (the
	// second stream_data arrived after both).
	require.Equal(t, []float64{64, 66}, got)

	s.Disconnect()
	waitRecv(t, s.Done())
}

func TestSocket_BackoffScheduleAndGiveUp(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	var dials atomic.Int32
	dialed := make(chan struct{}, 16)
	closes := make(chan error, 16)

	s, err := NewStreamSocket(SocketConfig{
		URL:    "ws://test/ws/stream",
		Clock:  clock,
		OnData: func(*models.StreamData) {},
		OnClose: func(err error) {
			closes <- err
		},
		Dial: func(ctx context.Context, url string) (wsConn, error) {
			dials.Add(1)
			dialed <- struct{}{}
			return nil, errors.New("connection refused")
		},
	})
	require.NoError(t, err)

	s.Connect(context.Background())

	// Initial attempt fails, then 5 reconnects at 1s, 2s, 4s, 8s, 16s.
	waitRecv(t, dialed)
	waitRecv(t, closes)

	delays := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}
	for i, d := range delays {
		clock.BlockUntil(1)

		// Advancing just shy of the delay must not trigger the dial.
		clock.Advance(d - time.Millisecond)
		select {
		case <-dialed:
			t.Fatalf("reconnect %d fired before its %v delay", i+1, d)
		case <-time.After(20 * time.Millisecond):
		}

		clock.Advance(time.Millisecond)
		waitRecv(t, dialed)
		waitRecv(t, closes)
	}

	// Budget exhausted: the socket gives up silently, no 6th reconnect.
	waitRecv(t, s.Done())
	clock.Advance(5 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(6), dials.Load())
}

func TestSocket_DisconnectSuppressesReconnect(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	var dials atomic.Int32
	connected := make(chan *scriptedConn, 1)

	s, err := NewStreamSocket(SocketConfig{
		URL:    "ws://test/ws/stream",
		Clock:  clock,
		OnData: func(*models.StreamData) {},
		Dial: func(ctx context.Context, url string) (wsConn, error) {
			dials.Add(1)
			conn := newScriptedConn()
			connected <- conn
			return conn, nil
		},
	})
	require.NoError(t, err)

	s.Connect(context.Background())
	waitRecv(t, connected)

	// Disconnect races the close event the dropped socket produces;
	// the reconnect logic must stay suppressed regardless.
	s.Disconnect()
	waitRecv(t, s.Done())

	clock.Advance(5 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), dials.Load())
	require.Equal(t, SocketDisconnected, s.State())
}

func TestSocket_SuccessfulOpenResetsAttemptBudget(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	var dials atomic.Int32
	dialed := make(chan bool, 16) // true = dial succeeded

	s, err := NewStreamSocket(SocketConfig{
		URL:    "ws://test/ws/stream",
		Clock:  clock,
		OnData: func(*models.StreamData) {},
		Dial: func(ctx context.Context, url string) (wsConn, error) {
			n := dials.Add(1)
			if n == 3 {
				conn := newScriptedConn()
				dialed <- true
				// Drop the connection shortly after; the read loop
				// will exit with an error.
				go func() {
					time.Sleep(10 * time.Millisecond)
					_ = conn.Close()
				}()
				return conn, nil
			}
			dialed <- false
			return nil, errors.New("connection refused")
		},
	})
	require.NoError(t, err)

	s.Connect(context.Background())

	require.False(t, waitRecv(t, dialed)) // initial attempt fails
	for _, d := range []time.Duration{time.Second, 2 * time.Second} {
		clock.BlockUntil(1)
		clock.Advance(d)
	}
	require.False(t, waitRecv(t, dialed)) // reconnect 1 fails
	require.True(t, waitRecv(t, dialed))  // reconnect 2 connects

	// The open reset the budget: after the drop, the next delay is
	// back at the 1s floor, and 5 fresh attempts remain.
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.False(t, waitRecv(t, dialed))

	for _, d := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second} {
		clock.BlockUntil(1)
		clock.Advance(d)
		require.False(t, waitRecv(t, dialed))
	}
	waitRecv(t, s.Done())
	require.Equal(t, int32(8), dials.Load())
}

// End-to-end against a real websocket server: one stream_data frame and
// one ping, delivered through the gorilla dialer.
func TestSocket_AgainstLiveServer(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ws/stream", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		frame, _ := json.Marshal(models.Frame{
			Type: models.FrameStreamData,
			Data: &models.StreamData{DeviceID: "live-band", Raw: models.RawSignals{HeartRate: 72}},
		})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

		// Hold the connection until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	got := make(chan *models.StreamData, 1)
	s, err := NewStreamSocket(SocketConfig{
		URL:    StreamSocketURL(srv.URL),
		OnData: func(d *models.StreamData) { got <- d },
	})
	require.NoError(t, err)

	s.Connect(context.Background())

	d := waitRecv(t, got)
	require.Equal(t, "live-band", d.DeviceID)
	require.InDelta(t, 72.0, d.Raw.HeartRate, 0.001)

	s.Disconnect()
	waitRecv(t, s.Done())
}
