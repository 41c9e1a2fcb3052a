package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulseview/pulseview/internal/models"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL, Timeout: timeout})
	require.NoError(t, err)
	return c
}

func TestClient_Config_Validate(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	require.Error(t, cfg.Validate())

	cfg.BaseURL = "http://127.0.0.1:8000"
	require.NoError(t, cfg.Validate())

	cfg.Timeout = -time.Second
	require.Error(t, cfg.Validate())
}

func TestClient_TimeoutClassified(t *testing.T) {
	t.Parallel()

	requestDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the request open until the client gives up.
		<-r.Context().Done()
		close(requestDone)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 50*time.Millisecond)

	_, err := c.FetchStream(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTimeout)

	// The in-flight request must have been aborted, not left dangling.
	select {
	case <-requestDone:
	case <-time.After(2 * time.Second):
		t.Fatal("server never observed request cancellation")
	}
}

func TestClient_CheckHealth_OK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.SystemStatus{
			Status:   "healthy",
			Services: map[string]bool{"lia": true},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	status := c.CheckHealth(context.Background())
	require.NotNil(t, status)
	require.Equal(t, "healthy", status.Status)
	require.True(t, status.Services["lia"])
}

func TestClient_CheckHealth_NeverErrors(t *testing.T) {
	t.Parallel()

	t.Run("http 500", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL, time.Second)
		require.Nil(t, c.CheckHealth(context.Background()))
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // nothing is listening anymore

		c := newTestClient(t, srv.URL, time.Second)
		require.Nil(t, c.CheckHealth(context.Background()))
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL, 50*time.Millisecond)
		require.Nil(t, c.CheckHealth(context.Background()))
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL, time.Second)
		require.Nil(t, c.CheckHealth(context.Background()))
	})
}

func TestClient_OneShotCallsPropagateStatusErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)

	_, err := c.FetchPrediction(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	require.Contains(t, statusErr.Status, "503")
}

func TestClient_Connect(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/connect", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.ConnectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "band-42", req.DeviceID)
		require.Equal(t, "wristband", req.DeviceType)

		_ = json.NewEncoder(w).Encode(models.ConnectionResponse{
			Status:    "connected",
			SessionID: "sess-1",
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	resp, err := c.Connect(context.Background(), models.ConnectionRequest{
		DeviceID:   "band-42",
		DeviceType: "wristband",
		AppVersion: "0.1.0",
	})
	require.NoError(t, err)
	require.Equal(t, "connected", resp.Status)
	require.Equal(t, "sess-1", resp.SessionID)
}

func TestClient_FetchStream(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/stream", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.StreamData{
			Timestamp: now,
			Raw:       models.RawSignals{HeartRate: 71},
			Insights:  &models.Insights{State: "calm", Confidence: 0.9},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	data, err := c.FetchStream(context.Background())
	require.NoError(t, err)
	require.Equal(t, now, data.Timestamp)
	require.InDelta(t, 71.0, data.Raw.HeartRate, 0.001)
	require.NotNil(t, data.Insights)
	require.Equal(t, "calm", data.Insights.State)
}

func TestClient_Sessions(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/sessions":
			_ = json.NewEncoder(w).Encode(models.SessionResponse{SessionID: "s-9", Active: true})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/sessions/s-9":
			_ = json.NewEncoder(w).Encode(models.SessionResponse{SessionID: "s-9", Active: false})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)

	created, err := c.CreateSession(context.Background(), models.SessionRequest{Kind: "monitoring"})
	require.NoError(t, err)
	require.Equal(t, "s-9", created.SessionID)
	require.True(t, created.Active)

	got, err := c.GetSession(context.Background(), "s-9")
	require.NoError(t, err)
	require.False(t, got.Active)

	_, err = c.GetSession(context.Background(), "nope")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestClient_ProcessingLogs_Limit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/logs/processing", r.URL.Path)
		require.Equal(t, "25", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(models.ProcessingLogList{
			Total: 2,
			Logs: []models.ProcessingLog{
				{Layer: "layer1", Level: "info", Message: "cleaned"},
				{Layer: "lia", Level: "info", Message: "inferred"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	list, err := c.ProcessingLogs(context.Background(), 25)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	require.Len(t, list.Logs, 2)
	require.Equal(t, "lia", list.Logs[1].Layer)
}

func TestClient_LayerDemo(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/demo/layers", r.URL.Path)
		// Shape is unspecified by the backend; the client passes it
		// through untyped.
		_, _ = w.Write([]byte(`{"layer1":{"demo":true},"extra":[1,2,3]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	demo, err := c.LayerDemo(context.Background())
	require.NoError(t, err)
	require.Contains(t, demo, "layer1")
	require.Contains(t, demo, "extra")
}

func TestClient_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.FetchStream(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled) || errors.Is(err, ErrTimeout))
}

func TestDefaultBaseURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, defaultLocalURL, DefaultBaseURL(models.PlatformLocal))
	require.Equal(t, defaultLocalURL, DefaultBaseURL(models.PlatformIOSSim))
	require.Equal(t, defaultAndroidEmuURL, DefaultBaseURL(models.PlatformAndroidEmu))
	require.Equal(t, defaultDeviceURL, DefaultBaseURL(models.PlatformDevice))
	require.Equal(t, defaultLocalURL, DefaultBaseURL(models.Platform("bogus")))
}
