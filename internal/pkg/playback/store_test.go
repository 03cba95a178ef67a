package playback

import (
	"testing"

	"github.com/airenas/scriba/internal/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue(t *testing.T) {
	s := NewStore()
	p := &audio.Payload{Name: "a.mp3", Content: []byte("X")}

	h := s.Issue(p)

	require.True(t, h.Valid())
	got, ok := s.Get(h.ID)
	assert.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, "/playback/"+h.ID, h.URL())
}

func TestIssue_Fresh(t *testing.T) {
	s := NewStore()
	p := &audio.Payload{Name: "a.mp3"}

	assert.NotEqual(t, s.Issue(p).ID, s.Issue(p).ID)
}

func TestRelease(t *testing.T) {
	s := NewStore()
	h := s.Issue(&audio.Payload{Name: "a.mp3"})
	h2 := s.Issue(&audio.Payload{Name: "b.mp3"})

	s.Release(h)

	_, ok := s.Get(h.ID)
	assert.False(t, ok)
	_, ok = s.Get(h2.ID)
	assert.True(t, ok)
}

func TestRelease_Zero(t *testing.T) {
	s := NewStore()
	h := s.Issue(&audio.Payload{Name: "a.mp3"})

	s.Release(Handle{})

	_, ok := s.Get(h.ID)
	assert.True(t, ok)
	assert.Equal(t, "", Handle{}.URL())
}
