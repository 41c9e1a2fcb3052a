package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	st, err := Load()
	require.NoError(t, err)
	require.Equal(t, 0, st.ActiveTab)
	require.True(t, st.Follow)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	st := &State{
		ActiveTab:    2,
		Follow:       false,
		Transport:    "websocket",
		WindowWidth:  120,
		WindowHeight: 40,
	}
	require.NoError(t, Save(st))

	loaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, st, loaded)
}
