package pedal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pedalrc/pedalrc/internal/event"
	"github.com/pedalrc/pedalrc/internal/pedal"
)

func TestStateDefaultsReleased(t *testing.T) {
	s := pedal.NewState()
	require.False(t, s.Pressed(1))
}

func TestStateTracksTransitions(t *testing.T) {
	s := pedal.NewState()
	s.Set(1, true)
	require.True(t, s.Pressed(1))

	s.Set(1, false)
	require.False(t, s.Pressed(1))

	s.Set(2, true)
	require.True(t, s.Pressed(2))
	require.False(t, s.Pressed(1))
}

func TestStateIsPerButton(t *testing.T) {
	s := pedal.NewState()
	s.Set(event.Button(5), true)
	require.True(t, s.Pressed(5))
	require.False(t, s.Pressed(6))
}
