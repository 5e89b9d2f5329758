package daemon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateStarting

	next, err := Transition(s, EventModelLoaded)
	require.NoError(t, err)
	require.Equal(t, StateReady, next)

	next, err = Transition(next, EventShutdown)
	require.NoError(t, err)
	require.Equal(t, StateDraining, next)

	next, err = Transition(next, EventDrainCompleted)
	require.NoError(t, err)
	require.Equal(t, StateStopped, next)
}

func TestTransitionLoadFailureStopsDaemon(t *testing.T) {
	next, err := Transition(StateStarting, EventLoadFailed)
	require.NoError(t, err)
	require.Equal(t, StateStopped, next)
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "starting shutdown invalid", state: StateStarting, event: EventShutdown, want: StateStarting, wantErr: true},
		{name: "ready model loaded invalid", state: StateReady, event: EventModelLoaded, want: StateReady, wantErr: true},
		{name: "draining shutdown invalid", state: StateDraining, event: EventShutdown, want: StateDraining, wantErr: true},
		{name: "stopped shutdown invalid", state: StateStopped, event: EventShutdown, want: StateStopped, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventModelLoaded)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
