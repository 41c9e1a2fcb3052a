package views

import (
	"strings"
	"testing"

	"github.com/pulseview/pulseview/internal/models"
	"github.com/stretchr/testify/require"
)

func TestLiveView_HistoryIsBounded(t *testing.T) {
	t.Parallel()

	v := NewLiveView()
	for i := 0; i < historyLen*2; i++ {
		v.Push(&models.StreamData{Raw: models.RawSignals{HeartRate: float64(60 + i%10)}})
	}
	require.Len(t, v.hrHistory, historyLen)

	v.Reset()
	require.Nil(t, v.latest)
	require.Empty(t, v.hrHistory)
}

func TestSparkline(t *testing.T) {
	t.Parallel()

	s := sparkline([]float64{0, 1, 2, 3}, 10)
	require.Equal(t, 4, len([]rune(s)))
	require.True(t, strings.HasPrefix(s, "▁"))
	require.True(t, strings.HasSuffix(s, "█"))

	// Flat input must not divide by zero.
	s = sparkline([]float64{5, 5, 5}, 10)
	require.Equal(t, 3, len([]rune(s)))

	// Wider history than width keeps the most recent samples.
	s = sparkline([]float64{0, 0, 0, 9, 9}, 2)
	require.Equal(t, 2, len([]rune(s)))
}
