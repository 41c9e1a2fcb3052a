package backend

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/pulseview/pulseview/internal/models"
	"github.com/stretchr/testify/require"
)

func TestMockBackend_ImplementsBackend(t *testing.T) {
	t.Parallel()

	var _ Backend = NewMockBackend(nil)
	var _ Backend = &Client{}
}

func TestMockBackend_Stream(t *testing.T) {
	t.Parallel()

	m := NewMockBackend(clockwork.NewFakeClock())

	d, err := m.FetchStream(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d.Layer1)
	require.NotNil(t, d.Layer2)
	require.NotNil(t, d.Layer3)
	require.NotNil(t, d.Insights)
	require.Greater(t, d.Raw.HeartRate, 40.0)
	require.Less(t, d.Raw.HeartRate, 120.0)

	status := m.CheckHealth(context.Background())
	require.NotNil(t, status)
	require.Equal(t, "healthy", status.Status)
	require.Equal(t, int64(1), status.ProcessedSamples)
}

func TestMockBackend_Sessions(t *testing.T) {
	t.Parallel()

	m := NewMockBackend(clockwork.NewFakeClock())

	s, err := m.CreateSession(context.Background(), models.SessionRequest{Kind: "chat"})
	require.NoError(t, err)
	require.Equal(t, "chat", s.Kind)
	require.True(t, s.Active)

	got, err := m.GetSession(context.Background(), s.SessionID)
	require.NoError(t, err)
	require.Equal(t, s.SessionID, got.SessionID)

	_, err = m.GetSession(context.Background(), "missing")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 404, statusErr.Code)
}

func TestMockBackend_ProcessingLogsLimit(t *testing.T) {
	t.Parallel()

	m := NewMockBackend(clockwork.NewFakeClock())

	list, err := m.ProcessingLogs(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list.Logs, 3)
	require.GreaterOrEqual(t, list.Total, 3)
}
