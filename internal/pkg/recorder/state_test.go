package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		v    State
		want string
	}{
		{v: Idle, want: "idle"},
		{v: Recording, want: "recording"},
		{v: Paused, want: "paused"},
		{v: Stopped, want: "stopped"},
		{v: State(10), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestFrom(t *testing.T) {
	for _, st := range []State{Idle, Recording, Paused, Stopped} {
		assert.Equal(t, st, From(st.String()))
	}
	assert.Equal(t, Idle, From("olia"))
}

func TestState_Active(t *testing.T) {
	assert.False(t, Idle.Active())
	assert.True(t, Recording.Active())
	assert.True(t, Paused.Active())
	assert.False(t, Stopped.Active())
}
